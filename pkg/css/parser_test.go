package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_BasicRule(t *testing.T) {
	sheet := ParseStylesheet("p { color: red; margin: 10px; }")
	rules := sheet.Rules()
	require.Len(t, rules, 1)

	assert.Equal(t, Element{Name: "p"}, rules[0].Selector)
	require.Len(t, rules[0].Declarations, 2)
	assert.Equal(t, Declaration{Property: "color", Value: "red"}, rules[0].Declarations[0])
	assert.Equal(t, Declaration{Property: "margin", Value: "10px"}, rules[0].Declarations[1])
}

func TestParser_SelectorKinds(t *testing.T) {
	cases := map[string]Selector{
		"*":        Universal{},
		"div":      Element{Name: "div"},
		"DIV":      Element{Name: "div"},
		".note":    Class{Name: "note"},
		"#main":    ID{Name: "main"},
		"[href]":   Attribute{Name: "href"},
		":hover":   PseudoClass{Name: "hover"},
		"::before": PseudoElement{Name: "before"},
	}
	for input, want := range cases {
		sheet := ParseStylesheet(input + " { color: red; }")
		rules := sheet.Rules()
		require.Len(t, rules, 1, "input %q", input)
		assert.Equal(t, want, rules[0].Selector, "input %q", input)
	}
}

func TestParser_AttributeOperators(t *testing.T) {
	sheet := ParseStylesheet(`[href^="https"] { color: red; }`)
	rules := sheet.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, Attribute{Name: "href", Op: "^=", Value: "https", HasOp: true}, rules[0].Selector)
}

func TestParser_Combinators(t *testing.T) {
	cases := map[string]CombinatorKind{
		"div .note { color: red; }": Descendant,
		"ul > li { color: red; }":   Child,
		"h1 + p { color: red; }":    Adjacent,
		"h1 ~ p { color: red; }":    Sibling,
	}
	for input, kind := range cases {
		rules := ParseStylesheet(input).Rules()
		require.Len(t, rules, 1, "input %q", input)
		comb, ok := rules[0].Selector.(Combinator)
		require.True(t, ok, "input %q: expected combinator", input)
		assert.Equal(t, kind, comb.Kind, "input %q", input)
	}
}

func TestParser_CombinatorLeftAssociative(t *testing.T) {
	rules := ParseStylesheet("body div > p { color: red; }").Rules()
	require.Len(t, rules, 1)
	outer, ok := rules[0].Selector.(Combinator)
	require.True(t, ok)
	assert.Equal(t, Child, outer.Kind)
	assert.Equal(t, Element{Name: "p"}, outer.Right)

	inner, ok := outer.Left.(Combinator)
	require.True(t, ok)
	assert.Equal(t, Descendant, inner.Kind)
	assert.Equal(t, Element{Name: "body"}, inner.Left)
	assert.Equal(t, Element{Name: "div"}, inner.Right)
}

func TestParser_SelectorListSharesDeclarations(t *testing.T) {
	sheet := ParseStylesheet("h1, h2, .title { font-weight: bold; }")
	rules := sheet.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, Element{Name: "h1"}, rules[0].Selector)
	assert.Equal(t, Element{Name: "h2"}, rules[1].Selector)
	assert.Equal(t, Class{Name: "title"}, rules[2].Selector)
	for _, r := range rules {
		assert.Equal(t, []Declaration{{Property: "font-weight", Value: "bold"}}, r.Declarations)
	}
}

func TestParser_Important(t *testing.T) {
	rules := ParseStylesheet("p { color: red !important; margin: 0; }").Rules()
	require.Len(t, rules, 1)
	require.Len(t, rules[0].Declarations, 2)
	assert.True(t, rules[0].Declarations[0].Important)
	assert.Equal(t, "red", rules[0].Declarations[0].Value)
	assert.False(t, rules[0].Declarations[1].Important)
}

func TestParser_MultiValueDeclaration(t *testing.T) {
	rules := ParseStylesheet(`p { margin: 10px 20px; font-family: "Helvetica Neue", sans-serif; }`).Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "10px 20px", rules[0].Declarations[0].Value)
	assert.Equal(t, `"Helvetica Neue", sans-serif`, rules[0].Declarations[1].Value)
}

func TestParser_FunctionValue(t *testing.T) {
	rules := ParseStylesheet("p { color: rgb(255, 0, 0); }").Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "rgb(255, 0, 0)", rules[0].Declarations[0].Value)
}

func TestParser_AtRuleWithoutBlock(t *testing.T) {
	sheet := ParseStylesheet(`@import url(base.css); p { color: red; }`)
	require.Len(t, sheet.Items, 2)
	at, ok := sheet.Items[0].(AtRule)
	require.True(t, ok)
	assert.Equal(t, "import", at.Name)
	assert.Equal(t, "url(base.css)", at.Prelude)
	assert.Empty(t, at.Items)
	assert.Len(t, sheet.Rules(), 1)
}

func TestParser_MediaBlockFlattens(t *testing.T) {
	sheet := ParseStylesheet(`
p { color: red; }
@media screen { p { color: blue; } div { margin: 0; } }
`)
	assert.Len(t, sheet.Rules(), 1)

	flat := sheet.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "red", flat[0].Declarations[0].Value)
	assert.Equal(t, "blue", flat[1].Declarations[0].Value)
	assert.Equal(t, Element{Name: "div"}, flat[2].Selector)
}

func TestParser_MalformedDeclarationSkipped(t *testing.T) {
	rules := ParseStylesheet("p { color red; margin: 4px; }").Rules()
	require.Len(t, rules, 1)
	require.Len(t, rules[0].Declarations, 1)
	assert.Equal(t, "margin", rules[0].Declarations[0].Property)
}

func TestParser_MalformedRuleSkipped(t *testing.T) {
	sheet := ParseStylesheet("]garbage{ x: y; } p { color: red; }")
	rules := sheet.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, Element{Name: "p"}, rules[0].Selector)
}

func TestParser_UnclosedBlockRecovers(t *testing.T) {
	rules := ParseStylesheet("p { color: red;").Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "red", rules[0].Declarations[0].Value)
}

func TestParser_InlineDeclarations(t *testing.T) {
	decls := ParseDeclarations("color: blue; font-size: 20px")
	require.Len(t, decls, 2)
	assert.Equal(t, Declaration{Property: "color", Value: "blue"}, decls[0])
	assert.Equal(t, Declaration{Property: "font-size", Value: "20px"}, decls[1])
}

func TestSelector_String(t *testing.T) {
	rules := ParseStylesheet("ul > li .item { color: red; }").Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "ul > li .item", rules[0].Selector.String())
}
