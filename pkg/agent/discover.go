// Package agent fills the demo form automatically: it reads the rendered
// page, generates a plausible value per control, applies them one by one
// and submits.
package agent

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formdemo/pkg/model"
)

// Control is a fillable control found on a page. Radio buttons sharing a
// name are folded into one control whose Options are their values.
type Control struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Kind    model.InputKind `json:"kind"`
	Options []string        `json:"options,omitempty"`
}

// Page is the result of discovery.
type Page struct {
	FormID   string
	Action   string
	Controls []Control
	// Hidden carries hidden inputs (CSRF token) to echo back on posts.
	Hidden map[string]string
}

// Discover parses markup and returns the controls of the form with id
// formID, or of the first form when that id is absent.
func Discover(markup []byte, formID string) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return Page{}, fmt.Errorf("agent: parse page: %w", err)
	}

	form := findElement(doc, func(n *html.Node) bool {
		return n.Data == "form" && attr(n, "id") == formID
	})
	if form == nil {
		form = findElement(doc, func(n *html.Node) bool { return n.Data == "form" })
	}
	if form == nil {
		return Page{}, fmt.Errorf("agent: no form found")
	}

	page := Page{FormID: attr(form, "id"), Action: attr(form, "action"), Hidden: map[string]string{}}
	labels := collectLabels(form)
	radios := map[string]int{}

	walk(form, func(n *html.Node) {
		switch n.Data {
		case "input":
			typ := strings.ToLower(attr(n, "type"))
			name := attr(n, "name")
			switch typ {
			case "hidden":
				if name != "" {
					page.Hidden[name] = attr(n, "value")
				}
				return
			case "submit", "button", "reset", "image":
				return
			case "radio":
				if idx, ok := radios[name]; ok {
					page.Controls[idx].Options = append(page.Controls[idx].Options, attr(n, "value"))
					return
				}
				radios[name] = len(page.Controls)
				page.Controls = append(page.Controls, Control{
					ID:      name,
					Name:    name,
					Label:   labelFor(labels, name+"-label", name),
					Kind:    model.KindRadio,
					Options: []string{attr(n, "value")},
				})
				return
			}
			page.Controls = append(page.Controls, newControl(n, labels, kindOf(n, typ)))
		case "select":
			kind := model.KindSelect
			if _, multiple := attrOK(n, "multiple"); multiple {
				kind = model.KindMultiSelect
			}
			ctrl := newControl(n, labels, kind)
			walk(n, func(option *html.Node) {
				if option.Data != "option" {
					return
				}
				if value, ok := attrOK(option, "value"); ok && value != "" {
					ctrl.Options = append(ctrl.Options, value)
				} else if !ok {
					ctrl.Options = append(ctrl.Options, textOf(option))
				}
			})
			page.Controls = append(page.Controls, ctrl)
		case "textarea":
			page.Controls = append(page.Controls, newControl(n, labels, model.KindTextarea))
		}
	})

	if len(page.Hidden) == 0 {
		page.Hidden = nil
	}
	return page, nil
}

func newControl(n *html.Node, labels map[string]string, kind model.InputKind) Control {
	id, name := attr(n, "id"), attr(n, "name")
	if id == "" {
		id = name
	}
	return Control{ID: id, Name: name, Label: labelFor(labels, id, name), Kind: kind}
}

// kindOf prefers the data-kind hint and falls back to the type attribute.
func kindOf(n *html.Node, typ string) model.InputKind {
	if hint := attr(n, "data-kind"); hint != "" {
		return model.ParseKind(hint)
	}
	return model.ParseKind(typ)
}

// collectLabels indexes label text by the id it points at. Labels wrapping
// their control are indexed by the wrapped control id.
func collectLabels(root *html.Node) map[string]string {
	labels := map[string]string{}
	walk(root, func(n *html.Node) {
		if n.Data != "label" {
			return
		}
		text := strings.TrimSuffix(textOf(n), ":")
		if target := attr(n, "for"); target != "" {
			labels[target] = text
			return
		}
		if id := attr(n, "id"); id != "" {
			labels[id] = text
		}
		if inner := findElement(n, func(c *html.Node) bool { return c.Data == "input" && attr(c, "type") != "radio" }); inner != nil {
			if id := attr(inner, "id"); id != "" {
				labels[id] = text
			}
		}
	})
	return labels
}

func labelFor(labels map[string]string, key, fallback string) string {
	if label := strings.TrimSpace(labels[key]); label != "" {
		return label
	}
	if fallback != "" {
		return fallback
	}
	return "Unknown"
}

func walk(root *html.Node, fn func(*html.Node)) {
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			fn(child)
		}
		walk(child, fn)
	}
}

func findElement(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && match(n) {
			found = n
		}
	})
	return found
}

func attr(n *html.Node, key string) string {
	value, _ := attrOK(n, key)
	return value
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
