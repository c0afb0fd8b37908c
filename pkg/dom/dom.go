// Package dom provides the node tree shared by the parser and the layout
// engine. Nodes live in a single append-only arena and reference each other
// by stable integer IDs; no node is ever removed, so IDs never dangle.
package dom

import "strings"

// NodeID is a stable index into a Tree's arena. IDs are valid for the
// lifetime of the Tree.
type NodeID = int

// NoParent marks the root's parent field.
const NoParent NodeID = -1

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Attribute is a single name/value pair. Attributes are kept as an ordered
// list, not a map, so duplicate or case-varying names from malformed input
// survive tokenization; lookups resolve duplicates first-write-wins.
type Attribute struct {
	Name  string
	Value string
}

type Node struct {
	Type       NodeType
	TagName    string      // element nodes only
	Attributes []Attribute // element nodes only
	Text       string      // text nodes only
	Children   []NodeID
	Parent     NodeID
}

// Attr returns the value of the first attribute with the given name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasClass reports whether the node's class attribute contains the given
// class in its whitespace-separated list.
func (n *Node) HasClass(class string) bool {
	val, ok := n.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

// Tree is the owning arena. Index 0 is always the synthetic "document"
// element; children are only ever appended after creation and the parent
// back-reference is set at creation time, so the tree cannot contain cycles.
type Tree struct {
	Nodes []Node
}

// NewTree creates a tree containing only the synthetic document root.
func NewTree() *Tree {
	t := &Tree{}
	t.Nodes = append(t.Nodes, Node{
		Type:    ElementNode,
		TagName: "document",
		Parent:  NoParent,
	})
	return t
}

// Root returns the document root's ID, always 0.
func (t *Tree) Root() NodeID {
	return 0
}

// Get returns the node for the given ID, or nil if the ID is out of
// range (including NoParent).
func (t *Tree) Get(id NodeID) *Node {
	if id < 0 || id >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// CreateElement appends a new element node and links it under parent.
func (t *Tree) CreateElement(tagName string, attrs []Attribute, parent NodeID) NodeID {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Type:       ElementNode,
		TagName:    tagName,
		Attributes: attrs,
		Parent:     parent,
	})
	if parent != NoParent {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}
	return id
}

// CreateText appends a new text node and links it under parent.
func (t *Tree) CreateText(text string, parent NodeID) NodeID {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Type:   TextNode,
		Text:   text,
		Parent: parent,
	})
	if parent != NoParent {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}
	return id
}

// TagName returns the tag name for element nodes, "" otherwise.
func (t *Tree) TagName(id NodeID) string {
	n := t.Get(id)
	if n.Type != ElementNode {
		return ""
	}
	return n.TagName
}

// IsElement reports whether id is an element with the given tag name.
func (t *Tree) IsElement(id NodeID, tag string) bool {
	n := t.Get(id)
	return n.Type == ElementNode && n.TagName == tag
}

// PreviousSibling returns the node immediately before id among its parent's
// children, or NoParent if id is first or has no parent.
func (t *Tree) PreviousSibling(id NodeID) NodeID {
	n := t.Get(id)
	if n.Parent == NoParent {
		return NoParent
	}
	siblings := t.Get(n.Parent).Children
	for i, c := range siblings {
		if c == id {
			if i == 0 {
				return NoParent
			}
			return siblings[i-1]
		}
	}
	return NoParent
}

// TextContent returns the concatenated text of id's descendants in
// document order.
func (t *Tree) TextContent(id NodeID) string {
	var sb strings.Builder
	t.appendText(id, &sb)
	return sb.String()
}

func (t *Tree) appendText(id NodeID, sb *strings.Builder) {
	n := t.Get(id)
	if n.Type == TextNode {
		sb.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		t.appendText(c, sb)
	}
}

// FindAll returns the IDs of all elements with the given tag name, in
// document order.
func (t *Tree) FindAll(tag string) []NodeID {
	var out []NodeID
	for id := range t.Nodes {
		if t.IsElement(id, tag) {
			out = append(out, id)
		}
	}
	return out
}
