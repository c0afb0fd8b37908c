package css

import (
	"testing"

	"velum/pkg/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree makes document > html > body > div.note#main > (p, text).
func buildTree() (*dom.Tree, map[string]dom.NodeID) {
	tree := dom.NewTree()
	html := tree.CreateElement("html", nil, tree.Root())
	body := tree.CreateElement("body", nil, html)
	div := tree.CreateElement("div", []dom.Attribute{
		{Name: "class", Value: "note highlight"},
		{Name: "id", Value: "main"},
		{Name: "href", Value: "https://example.com/x"},
	}, body)
	p := tree.CreateElement("p", nil, div)
	text := tree.CreateText("hello", p)
	return tree, map[string]dom.NodeID{
		"html": html, "body": body, "div": div, "p": p, "text": text,
	}
}

func TestMatches_SimpleSelectors(t *testing.T) {
	tree, ids := buildTree()
	div := ids["div"]

	assert.True(t, Matches(Universal{}, tree, div))
	assert.True(t, Matches(Element{Name: "div"}, tree, div))
	assert.False(t, Matches(Element{Name: "p"}, tree, div))
	assert.True(t, Matches(Class{Name: "note"}, tree, div))
	assert.True(t, Matches(Class{Name: "highlight"}, tree, div))
	assert.False(t, Matches(Class{Name: "other"}, tree, div))
	assert.True(t, Matches(ID{Name: "main"}, tree, div))
	assert.False(t, Matches(ID{Name: "nav"}, tree, div))
}

func TestMatches_TextNodesNeverMatch(t *testing.T) {
	tree, ids := buildTree()
	assert.False(t, Matches(Universal{}, tree, ids["text"]))
}

func TestMatches_AttributeOperators(t *testing.T) {
	tree, ids := buildTree()
	div := ids["div"]

	assert.True(t, Matches(Attribute{Name: "href"}, tree, div))
	assert.False(t, Matches(Attribute{Name: "src"}, tree, div))
	assert.True(t, Matches(Attribute{Name: "href", Op: "^=", Value: "https", HasOp: true}, tree, div))
	assert.True(t, Matches(Attribute{Name: "href", Op: "$=", Value: "/x", HasOp: true}, tree, div))
	assert.True(t, Matches(Attribute{Name: "href", Op: "*=", Value: "example", HasOp: true}, tree, div))
	assert.True(t, Matches(Attribute{Name: "class", Op: "~=", Value: "note", HasOp: true}, tree, div))
	assert.False(t, Matches(Attribute{Name: "class", Op: "=", Value: "note", HasOp: true}, tree, div))
}

func TestMatches_CombinatorUsesRightmost(t *testing.T) {
	tree, ids := buildTree()
	sel := Combinator{
		Kind:  Descendant,
		Left:  Element{Name: "nav"}, // ancestor side is not consulted
		Right: Element{Name: "p"},
	}
	assert.True(t, Matches(sel, tree, ids["p"]))
	assert.False(t, Matches(sel, tree, ids["div"]))
}

func TestMatches_PseudoNeverMatches(t *testing.T) {
	tree, ids := buildTree()
	assert.False(t, Matches(PseudoClass{Name: "hover"}, tree, ids["div"]))
	assert.False(t, Matches(PseudoElement{Name: "before"}, tree, ids["div"]))
}

func TestComputeStyle_LastMatchWins(t *testing.T) {
	tree, ids := buildTree()
	rules := ParseStylesheet(`
div { color: red; }
div { color: blue; }
`).Rules()
	style := ComputeStyle(tree, ids["div"], rules)
	assert.Equal(t, "blue", style.Color())
}

func TestComputeStyle_InlineStyleWins(t *testing.T) {
	tree := dom.NewTree()
	div := tree.CreateElement("div", []dom.Attribute{
		{Name: "style", Value: "color: green; font-size: 20px"},
	}, tree.Root())
	rules := ParseStylesheet("div { color: red; }").Rules()
	style := ComputeStyle(tree, div, rules)
	assert.Equal(t, "green", style.Color())
	assert.Equal(t, 20.0, style.FontSize())
}

func TestComputeStyle_BuiltinDefaults(t *testing.T) {
	tree := dom.NewTree()
	a := tree.CreateElement("a", nil, tree.Root())
	h1 := tree.CreateElement("h1", nil, tree.Root())
	em := tree.CreateElement("em", nil, tree.Root())

	aStyle := ComputeStyle(tree, a, nil)
	assert.Equal(t, "#0645ad", aStyle.Color())
	assert.True(t, aStyle.Underline())

	assert.True(t, ComputeStyle(tree, h1, nil).Bold())
	assert.True(t, ComputeStyle(tree, em, nil).Italic())
}

func TestComputeStyle_AuthorOverridesBuiltin(t *testing.T) {
	tree := dom.NewTree()
	a := tree.CreateElement("a", nil, tree.Root())
	rules := ParseStylesheet("a { color: black; }").Rules()
	assert.Equal(t, "black", ComputeStyle(tree, a, rules).Color())
}

func TestResolver_InheritanceToText(t *testing.T) {
	tree, ids := buildTree()
	sheet := ParseStylesheet("div { font-size: 20px; color: purple; padding: 4px; }")
	r := NewResolver(tree, sheet)

	textStyle := r.StyleFor(ids["text"])
	assert.Equal(t, 20.0, textStyle.FontSize())
	assert.Equal(t, "purple", textStyle.Color())

	// Box properties do not inherit.
	pStyle := r.StyleFor(ids["p"])
	assert.Equal(t, Edge{}, pStyle.Padding())
}

func TestResolver_ChildOverridesInherited(t *testing.T) {
	tree, ids := buildTree()
	sheet := ParseStylesheet("div { font-size: 20px; } p { font-size: 12px; }")
	r := NewResolver(tree, sheet)
	require.Equal(t, 20.0, r.StyleFor(ids["div"]).FontSize())
	assert.Equal(t, 12.0, r.StyleFor(ids["p"]).FontSize())
	assert.Equal(t, 12.0, r.StyleFor(ids["text"]).FontSize())
}
