package testsupport

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// ParseHTML parses a document or fragment, failing the test on error.
func ParseHTML(t *testing.T, markup []byte) *html.Node {
	t.Helper()

	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(node *html.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// FindAll walks the tree depth first and returns every element matching fn.
func FindAll(root *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && fn(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// FindByAttr returns the first element whose attribute equals value.
func FindByAttr(root *html.Node, name, value string) *html.Node {
	matches := FindAll(root, func(n *html.Node) bool {
		got, ok := Attr(n, name)
		return ok && got == value
	})
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindByTestID returns the element carrying data-testid=id.
func FindByTestID(root *html.Node, id string) *html.Node {
	return FindByAttr(root, "data-testid", id)
}

// FindByID returns the element with the given id attribute.
func FindByID(root *html.Node, id string) *html.Node {
	return FindByAttr(root, "id", id)
}

// FindTag returns every element with the given tag name.
func FindTag(root *html.Node, tag string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool { return n.Data == tag })
}

// Text concatenates the text content below node with whitespace collapsed.
func Text(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
