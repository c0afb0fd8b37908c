package layout

import (
	"fmt"
	"strconv"

	"velum/pkg/css"
	"velum/pkg/dom"

	"github.com/xlab/treeprint"
)

// BoxType distinguishes block boxes from inline (text and inline element)
// boxes.
type BoxType int

const (
	BlockBox BoxType = iota
	InlineBox
)

func (t BoxType) String() string {
	if t == InlineBox {
		return "inline"
	}
	return "block"
}

// Dimensions is a border-box rectangle: position plus content-and-padding
// extent. Margins live outside it.
type Dimensions struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// LayoutBox is one node of the layout tree. TextContent is set for inline
// text fragments (including generated list markers).
type LayoutBox struct {
	NodeID      dom.NodeID
	Type        BoxType
	Dimensions  Dimensions
	Style       *css.Style
	Children    []*LayoutBox
	TextContent string
}

// Viewport is the layout area in CSS pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// DefaultViewport is the layout area used when none is given.
func DefaultViewport() Viewport {
	return Viewport{Width: 800, Height: 600}
}

// Dump renders the layout tree for debugging.
func (b *LayoutBox) Dump(tree *dom.Tree) string {
	tp := treeprint.New()
	tp.SetValue(b.label(tree))
	b.addChildren(tree, tp)
	return tp.String()
}

func (b *LayoutBox) addChildren(tree *dom.Tree, branch treeprint.Tree) {
	for _, c := range b.Children {
		child := branch.AddBranch(c.label(tree))
		c.addChildren(tree, child)
	}
}

func (b *LayoutBox) label(tree *dom.Tree) string {
	name := "line"
	if n := tree.Get(b.NodeID); n != nil {
		switch n.Type {
		case dom.ElementNode:
			name = "<" + n.TagName + ">"
		case dom.TextNode:
			name = "#text"
		}
	}
	d := b.Dimensions
	label := fmt.Sprintf("%s %s (%.0f,%.0f) %.0fx%.0f", name, b.Type, d.X, d.Y, d.Width, d.Height)
	if b.TextContent != "" {
		txt := b.TextContent
		if len(txt) > 30 {
			txt = txt[:30] + "..."
		}
		label += " " + strconv.Quote(txt)
	}
	return label
}
