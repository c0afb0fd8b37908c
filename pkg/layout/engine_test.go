package layout

import (
	"testing"

	"velum/pkg/css"
	"velum/pkg/html"
	"velum/pkg/text"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutHTML lays out markup with a fixed 10px-per-rune measurer so wrap
// positions are exact.
func layoutHTML(t *testing.T, markup, stylesheet string) *LayoutBox {
	t.Helper()
	doc := html.Parse(markup)
	sheet := css.ParseStylesheet(stylesheet)
	engine := NewEngine(Viewport{Width: 800, Height: 600}, text.FixedMeasurer{Advance: 10})
	return engine.Layout(doc.Tree, sheet)
}

// descend walks child indexes from the root box.
func descend(t *testing.T, box *LayoutBox, path ...int) *LayoutBox {
	t.Helper()
	for _, i := range path {
		require.Greater(t, len(box.Children), i, "missing child %d of %+v", i, box.Dimensions)
		box = box.Children[i]
	}
	return box
}

func TestLayout_RootStretchesToViewport(t *testing.T) {
	root := layoutHTML(t, "<html><body></body></html>", "")
	assert.Equal(t, 800.0, root.Dimensions.Width)
	assert.Equal(t, 600.0, root.Dimensions.Height)
	assert.Equal(t, BlockBox, root.Type)
}

func TestLayout_HeadContentExcluded(t *testing.T) {
	root := layoutHTML(t,
		"<html><head><style>p{color:red}</style><title>T</title></head><body><p>x</p></body></html>", "")
	htmlBox := descend(t, root, 0)
	require.Len(t, htmlBox.Children, 1, "expected only body under html")
	body := htmlBox.Children[0]
	require.Len(t, body.Children, 1)
}

func TestLayout_BlockWidthContainment(t *testing.T) {
	root := layoutHTML(t, "<div><p>word</p></div>", "div { width: 200px; padding: 10px; }")
	div := descend(t, root, 0, 0, 0)
	// Border box covers content plus padding.
	assert.Equal(t, 220.0, div.Dimensions.Width)

	p := descend(t, div, 0)
	assert.Equal(t, 200.0, p.Dimensions.Width)
	assert.Equal(t, div.Dimensions.X+10, p.Dimensions.X)
	// The child's border box stays inside the parent's content area.
	assert.LessOrEqual(t, p.Dimensions.X+p.Dimensions.Width, div.Dimensions.X+div.Dimensions.Width-10)
}

func TestLayout_GreedyWordWrap(t *testing.T) {
	// Three 40px words in a 100px line: two fit (40 + 10 space + 40),
	// the third wraps.
	root := layoutHTML(t, "<div>aaaa bbbb cccc</div>", "div { width: 100px; }")
	div := descend(t, root, 0, 0, 0)
	line := descend(t, div, 0)
	require.Len(t, line.Children, 3)

	w1, w2, w3 := line.Children[0], line.Children[1], line.Children[2]
	assert.Equal(t, "aaaa", w1.TextContent)
	assert.Equal(t, 0.0, w1.Dimensions.X)
	assert.Equal(t, 0.0, w1.Dimensions.Y)
	assert.Equal(t, 40.0, w1.Dimensions.Width)

	assert.Equal(t, "bbbb", w2.TextContent)
	assert.Equal(t, 50.0, w2.Dimensions.X)
	assert.Equal(t, 0.0, w2.Dimensions.Y)

	assert.Equal(t, "cccc", w3.TextContent)
	assert.Equal(t, 0.0, w3.Dimensions.X)
	assert.InDelta(t, 19.2, w3.Dimensions.Y, 0.001)

	assert.InDelta(t, 38.4, line.Dimensions.Height, 0.001)
	assert.InDelta(t, 38.4, div.Dimensions.Height, 0.001)
}

func TestLayout_CharacterWrapForOverlongWord(t *testing.T) {
	// A 150px word after a placed word splits at character boundaries:
	// 7 chars fill the 70px left on the first line, the remaining 8
	// continue on the next.
	root := layoutHTML(t, "<div>aa aaaaaaaaaaaaaaa</div>", "div { width: 100px; }")
	div := descend(t, root, 0, 0, 0)
	line := descend(t, div, 0)
	require.Len(t, line.Children, 3)

	assert.Equal(t, "aa", line.Children[0].TextContent)
	chunk1, chunk2 := line.Children[1], line.Children[2]
	assert.Equal(t, "aaaaaaa", chunk1.TextContent)
	assert.Equal(t, 30.0, chunk1.Dimensions.X)
	assert.Equal(t, "aaaaaaaa", chunk2.TextContent)
	assert.Equal(t, 0.0, chunk2.Dimensions.X)
	assert.InDelta(t, 19.2, chunk2.Dimensions.Y, 0.001)
}

func TestLayout_UnorderedListMarkers(t *testing.T) {
	root := layoutHTML(t, "<ul><li>one</li><li>two</li></ul>", "")
	ul := descend(t, root, 0, 0, 0)
	require.Len(t, ul.Children, 2)

	first := ul.Children[0]
	marker := descend(t, first, 0)
	assert.Equal(t, "•", marker.TextContent)
	assert.Equal(t, InlineBox, marker.Type)

	// Default 40px indent: items start at x=40, the marker hangs left.
	assert.Equal(t, 40.0, first.Dimensions.X)
	assert.Less(t, marker.Dimensions.X, first.Dimensions.X)
}

func TestLayout_OrderedListMarkers(t *testing.T) {
	root := layoutHTML(t, "<ol><li>one</li><li>two</li></ol>", "")
	ol := descend(t, root, 0, 0, 0)
	require.Len(t, ol.Children, 2)

	assert.Equal(t, "1.", descend(t, ol.Children[0], 0).TextContent)
	assert.Equal(t, "2.", descend(t, ol.Children[1], 0).TextContent)

	// Items stack: the second starts below the first.
	assert.InDelta(t, 19.2, ol.Children[1].Dimensions.Y, 0.001)
}

func TestLayout_AutoMarginCentering(t *testing.T) {
	root := layoutHTML(t, "<div>x</div>", "div { width: 400px; margin: 0 auto; }")
	div := descend(t, root, 0, 0, 0)
	assert.Equal(t, 200.0, div.Dimensions.X)
	assert.Equal(t, 400.0, div.Dimensions.Width)
}

func TestLayout_ViewportRelativeMargin(t *testing.T) {
	root := layoutHTML(t, "<div>x</div>", "div { margin-top: 10vh; }")
	div := descend(t, root, 0, 0, 0)
	assert.Equal(t, 60.0, div.Dimensions.Y)
}

func TestLayout_PercentageWidthAgainstViewport(t *testing.T) {
	root := layoutHTML(t, "<div>x</div>", "div { width: 50%; }")
	div := descend(t, root, 0, 0, 0)
	assert.Equal(t, 400.0, div.Dimensions.Width)
}

func TestLayout_BlockStackingWithMargins(t *testing.T) {
	root := layoutHTML(t, "<p>a</p><p>b</p>", "p { margin: 10px 0; }")
	body := descend(t, root, 0, 0)
	require.Len(t, body.Children, 2)
	first, second := body.Children[0], body.Children[1]
	assert.Equal(t, 10.0, first.Dimensions.Y)
	// Second paragraph starts after the first plus both vertical margins.
	assert.InDelta(t, first.Dimensions.Y+first.Dimensions.Height+20, second.Dimensions.Y, 0.001)
}

func TestLayout_InlineImagePlaceholder(t *testing.T) {
	root := layoutHTML(t, "<p>a <img src=x></p>", "")
	p := descend(t, root, 0, 0, 0)
	line := descend(t, p, 0)
	require.Len(t, line.Children, 2)
	img := line.Children[1]
	assert.Equal(t, 100.0, img.Dimensions.Width)
	assert.Equal(t, 80.0, img.Dimensions.Height)
	// The line grows to the tallest inline box.
	assert.Equal(t, 80.0, line.Dimensions.Height)
}

func TestLayout_EmptyBlockHasZeroHeight(t *testing.T) {
	root := layoutHTML(t, "<div></div><p>x</p>", "")
	body := descend(t, root, 0, 0)
	require.Len(t, body.Children, 2)
	assert.Equal(t, 0.0, body.Children[0].Dimensions.Height)
	assert.Equal(t, 0.0, body.Children[1].Dimensions.Y)
}

func TestLayout_FontSizeScalesLineHeight(t *testing.T) {
	root := layoutHTML(t, "<p>word</p>", "p { font-size: 20px; }")
	p := descend(t, root, 0, 0, 0)
	assert.InDelta(t, 24.0, p.Dimensions.Height, 0.001)
}

func TestLayout_NestedListIndentation(t *testing.T) {
	root := layoutHTML(t, "<ul><li>a<ul><li>b</li></ul></li></ul>", "")
	outer := descend(t, root, 0, 0, 0)
	item := outer.Children[0]
	nested := descend(t, item, 2) // marker, line, nested list
	assert.Equal(t, item.Dimensions.X+40, nested.Children[0].Dimensions.X)
}
