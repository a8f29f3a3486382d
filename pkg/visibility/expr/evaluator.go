package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator.
//
// Grammar:
//
//	expr    := and ( "||" and )*
//	and     := unary ( "&&" unary )*
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | ident [ ("==" | "!=") literal ]
//
// Identifiers are looked up in Context.Values with dot-path traversal, or in
// Context.Extras via the `extras.` prefix. A bare identifier is truthy when
// its value is true, a non-empty string other than "false", a non-zero number
// or a non-empty list.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Eval parses and evaluates rule. An empty rule is always true.
func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	tokens, err := tokenize(rule)
	if err != nil {
		return false, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.tokens) {
		return false, fmt.Errorf("expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return node.eval(ctx), nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var out []token
	for i := 0; i < len(input); {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			out = append(out, token{tokLParen, "("})
			i++
		case c == ')':
			out = append(out, token{tokRParen, ")"})
			i++
		case strings.HasPrefix(input[i:], "=="):
			out = append(out, token{tokEq, "=="})
			i += 2
		case strings.HasPrefix(input[i:], "!="):
			out = append(out, token{tokNeq, "!="})
			i += 2
		case strings.HasPrefix(input[i:], "&&"):
			out = append(out, token{tokAnd, "&&"})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			out = append(out, token{tokOr, "||"})
			i += 2
		case c == '!':
			out = append(out, token{tokNot, "!"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(input[i+1:], c)
			if end < 0 {
				return nil, errors.New("expr: unterminated string literal")
			}
			out = append(out, token{tokString, input[i+1 : i+1+end]})
			i += end + 2
		case isIdentByte(c) || c == '-':
			start := i
			for i < len(input) && (isIdentByte(input[i]) || input[i] == '-') {
				i++
			}
			out = append(out, classifyWord(input[start:i]))
		default:
			return nil, fmt.Errorf("expr: unexpected character %q", c)
		}
	}
	return out, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func classifyWord(word string) token {
	switch word {
	case "true", "false":
		return token{tokBool, word}
	case "null", "nil":
		return token{tokNull, word}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return token{tokNumber, word}
	}
	return token{tokIdent, word}
}

type node interface {
	eval(ctx visibility.Context) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) bool { return n.left.eval(ctx) || n.right.eval(ctx) }

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) bool { return n.left.eval(ctx) && n.right.eval(ctx) }

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) bool { return !n.inner.eval(ctx) }

type truthyNode struct{ ident string }

func (n truthyNode) eval(ctx visibility.Context) bool {
	value, ok := lookup(ctx, n.ident)
	return ok && truthy(value)
}

type compareNode struct {
	ident   string
	negate  bool
	literal token
}

func (n compareNode) eval(ctx visibility.Context) bool {
	value, ok := lookup(ctx, n.ident)
	equal := ok && matches(value, n.literal)
	if !ok && n.literal.kind == tokNull {
		equal = true
	}
	if n.negate {
		return !equal
	}
	return equal
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kind tokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.accept(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, errors.New("expr: missing closing parenthesis")
		}
		return inner, nil
	}

	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("expr: unexpected end of rule")
	}
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("expr: expected identifier, got %q", tok.raw)
	}
	p.pos++

	negate := false
	switch {
	case p.accept(tokEq):
	case p.accept(tokNeq):
		negate = true
	default:
		return truthyNode{ident: tok.raw}, nil
	}

	lit, ok := p.peek()
	if !ok {
		return nil, errors.New("expr: missing comparison operand")
	}
	switch lit.kind {
	case tokString, tokNumber, tokBool, tokNull:
		p.pos++
	default:
		return nil, fmt.Errorf("expr: expected literal, got %q", lit.raw)
	}
	return compareNode{ident: tok.raw, negate: negate, literal: lit}, nil
}

func lookup(ctx visibility.Context, ident string) (any, bool) {
	if rest, ok := strings.CutPrefix(ident, "extras."); ok {
		return lookupPath(ctx.Extras, rest)
	}
	return lookupPath(ctx.Values, ident)
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if values == nil {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	head, tail, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	nested, ok := values[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(nested, tail)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && !strings.EqualFold(trimmed, "false")
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	if f, ok := toNumber(value); ok {
		return f != 0
	}
	return true
}

func matches(value any, lit token) bool {
	switch lit.kind {
	case tokNull:
		return value == nil
	case tokBool:
		want := lit.raw == "true"
		switch v := value.(type) {
		case bool:
			return v == want
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return err == nil && b == want
		}
		return false
	case tokNumber:
		want, _ := strconv.ParseFloat(lit.raw, 64)
		got, ok := toNumber(value)
		return ok && got == want
	default:
		return fmt.Sprint(value) == lit.raw
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
