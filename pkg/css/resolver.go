package css

import (
	"strings"

	"velum/pkg/dom"
)

// Matches reports whether the element at id matches the selector.
// Combinators are matched by their right-most simple selector only; the
// ancestor or sibling side is not consulted. Pseudo-classes and
// pseudo-elements never match.
func Matches(sel Selector, tree *dom.Tree, id dom.NodeID) bool {
	n := tree.Get(id)
	if n == nil || n.Type != dom.ElementNode {
		return false
	}
	switch s := sel.(type) {
	case Universal:
		return true
	case Element:
		return n.TagName == s.Name
	case ID:
		v, ok := n.Attr("id")
		return ok && v == s.Name
	case Class:
		return n.HasClass(s.Name)
	case Attribute:
		return matchAttribute(s, n)
	case Combinator:
		return Matches(s.Right, tree, id)
	case PseudoClass, PseudoElement:
		return false
	}
	return false
}

func matchAttribute(s Attribute, n *dom.Node) bool {
	v, ok := n.Attr(s.Name)
	if !ok {
		return false
	}
	if !s.HasOp {
		return true
	}
	switch s.Op {
	case "=":
		return v == s.Value
	case "~=":
		for _, word := range strings.Fields(v) {
			if word == s.Value {
				return true
			}
		}
		return false
	case "|=":
		return v == s.Value || strings.HasPrefix(v, s.Value+"-")
	case "^=":
		return s.Value != "" && strings.HasPrefix(v, s.Value)
	case "$=":
		return s.Value != "" && strings.HasSuffix(v, s.Value)
	case "*=":
		return s.Value != "" && strings.Contains(v, s.Value)
	}
	return false
}

// defaultStyles are the built-in element styles applied before author
// rules.
var defaultStyles = map[string][]Declaration{
	"a": {
		{Property: "color", Value: "#0645ad"},
		{Property: "text-decoration", Value: "underline"},
	},
	"h1":     {{Property: "font-weight", Value: "bold"}},
	"h2":     {{Property: "font-weight", Value: "bold"}},
	"h3":     {{Property: "font-weight", Value: "bold"}},
	"h4":     {{Property: "font-weight", Value: "bold"}},
	"h5":     {{Property: "font-weight", Value: "bold"}},
	"h6":     {{Property: "font-weight", Value: "bold"}},
	"b":      {{Property: "font-weight", Value: "bold"}},
	"strong": {{Property: "font-weight", Value: "bold"}},
	"em":     {{Property: "font-style", Value: "italic"}},
	"i":      {{Property: "font-style", Value: "italic"}},
}

// ComputeStyle cascades the rule list onto one element: built-in defaults
// first, then matching author rules in document order (a later rule
// overrides an earlier one), then the inline style attribute.
func ComputeStyle(tree *dom.Tree, id dom.NodeID, rules []Rule) *Style {
	style := NewStyle()
	n := tree.Get(id)
	if n == nil || n.Type != dom.ElementNode {
		return style
	}

	for _, d := range defaultStyles[n.TagName] {
		style.Set(d.Property, d.Value)
	}
	for _, rule := range rules {
		if !Matches(rule.Selector, tree, id) {
			continue
		}
		for _, d := range rule.Declarations {
			style.Set(d.Property, d.Value)
		}
	}
	if inline, ok := n.Attr("style"); ok {
		for _, d := range ParseDeclarations(inline) {
			style.Set(d.Property, d.Value)
		}
	}
	return style
}

// ParseDeclarations parses a bare declaration list, as found in a style
// attribute.
func ParseDeclarations(input string) []Declaration {
	p := &parser{tokens: NewTokenizer(input).Tokenize()}
	return p.parseDeclarations()
}

// inheritedProperties flow from parent to child unless overridden.
var inheritedProperties = []string{
	"font-size", "font-family", "font-weight", "font-style",
	"color", "text-decoration", "line-height", "text-align",
}

// Resolver computes and caches styles for a whole tree, applying
// inheritance on top of the per-element cascade. Text nodes take their
// parent element's style.
type Resolver struct {
	tree  *dom.Tree
	rules []Rule
	cache map[dom.NodeID]*Style
}

func NewResolver(tree *dom.Tree, sheet *Stylesheet) *Resolver {
	var rules []Rule
	if sheet != nil {
		rules = sheet.Rules()
	}
	return &Resolver{tree: tree, rules: rules, cache: map[dom.NodeID]*Style{}}
}

// StyleFor returns the resolved style for a node.
func (r *Resolver) StyleFor(id dom.NodeID) *Style {
	if s, ok := r.cache[id]; ok {
		return s
	}
	n := r.tree.Get(id)
	if n == nil {
		return NewStyle()
	}
	if n.Type == dom.TextNode {
		s := r.parentStyle(n)
		r.cache[id] = s
		return s
	}

	style := NewStyle()
	parent := r.parentStyle(n)
	for _, prop := range inheritedProperties {
		if v, ok := parent.Properties[prop]; ok {
			style.Properties[prop] = v
		}
	}
	computed := ComputeStyle(r.tree, id, r.rules)
	for k, v := range computed.Properties {
		style.Properties[k] = v
	}
	r.cache[id] = style
	return style
}

func (r *Resolver) parentStyle(n *dom.Node) *Style {
	if n.Parent == dom.NoParent {
		return NewStyle()
	}
	return r.StyleFor(n.Parent)
}
