package docuseal

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Host inserts nodes into a live document.
type Host interface {
	AppendHead(node *html.Node) error
	AppendBody(node *html.Node) error
}

// Mount appends the frame's node to the host body and returns it.
func Mount(host Host, f Frame) (*html.Node, error) {
	node := f.Node()
	if err := host.AppendBody(node); err != nil {
		return nil, fmt.Errorf("mount frame: %w", err)
	}
	return node, nil
}

// Prefetch appends a <link rel="prefetch"> for href to the host head.
func Prefetch(host Host, href string) error {
	link := &html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "rel", Val: "prefetch"},
			{Key: "href", Val: href},
		},
	}
	if err := host.AppendHead(link); err != nil {
		return fmt.Errorf("prefetch %s: %w", href, err)
	}
	return nil
}

// Document is a Host backed by an in-memory HTML tree.
type Document struct {
	root *html.Node
	head *html.Node
	body *html.Node
}

// NewDocument creates an empty HTML5 document with the given title.
func NewDocument(title string) *Document {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlNode := Element(atom.Html)
	head := Element(atom.Head)
	body := Element(atom.Body)

	meta := Element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"})
	head.AppendChild(meta)
	if title != "" {
		titleNode := Element(atom.Title)
		titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(titleNode)
	}

	htmlNode.AppendChild(head)
	htmlNode.AppendChild(body)
	root.AppendChild(htmlNode)

	return &Document{root: root, head: head, body: body}
}

// AppendHead implements Host
func (d *Document) AppendHead(node *html.Node) error {
	return appendChild(d.head, node)
}

// AppendBody implements Host
func (d *Document) AppendBody(node *html.Node) error {
	return appendChild(d.body, node)
}

// Render writes the document as HTML
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Element creates a detached element node
func Element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     attrs,
	}
}

func appendChild(parent, node *html.Node) error {
	if node == nil {
		return errors.New("nil node")
	}
	if node.Parent != nil {
		return errors.New("node already attached")
	}
	parent.AppendChild(node)
	return nil
}
