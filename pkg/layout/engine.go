package layout

import (
	"fmt"
	"log/slog"
	"strings"

	"velum/pkg/css"
	"velum/pkg/dom"
	"velum/pkg/text"
)

// excludedTags never generate boxes.
var excludedTags = map[string]bool{
	"head": true, "meta": true, "link": true, "title": true,
	"style": true, "script": true, "base": true, "noscript": true,
}

// blockTags are the elements laid out as blocks by default. Everything
// else flows inline.
var blockTags = map[string]bool{
	"html": true, "body": true, "document": true, "template": true,
	"article": true, "aside": true, "footer": true, "header": true,
	"nav": true, "section": true, "main": true,
	"p": true, "div": true, "blockquote": true, "pre": true, "hr": true,
	"address": true, "figure": true, "figcaption": true, "center": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hgroup": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"dir": true, "menu": true,
	"table": true, "caption": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true, "td": true, "th": true, "col": true,
	"colgroup": true,
	"form": true, "fieldset": true, "legend": true, "label": true,
	"input": true, "button": true, "select": true, "textarea": true,
	"option": true, "optgroup": true, "datalist": true, "output": true,
	"iframe": true, "video": true, "audio": true, "canvas": true,
	"object": true, "embed": true, "picture": true, "source": true,
	"track": true,
	"details": true, "summary": true, "dialog": true,
	"xmp": true, "listing": true, "plaintext": true, "frameset": true,
	"frame": true, "noframes": true,
}

// lineHeightFactor converts a font size into a line height.
const lineHeightFactor = 1.2

// listIndent is the default left indentation of list containers.
const listIndent = 40.0

// markerSpacingFactor sets the gap between a list marker and its item, as
// a fraction of the font size.
const markerSpacingFactor = 0.5

// Engine lays out a document tree into a box tree.
type Engine struct {
	viewport Viewport
	measurer text.Measurer
	log      *slog.Logger
}

func NewEngine(viewport Viewport, measurer text.Measurer) *Engine {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = DefaultViewport()
	}
	if measurer == nil {
		measurer = text.NewGGMeasurer()
	}
	return &Engine{viewport: viewport, measurer: measurer, log: slog.New(discardHandler{})}
}

// SetLogger installs a diagnostics sink for layout tracing.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.log = l
	}
}

func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Layout computes the layout tree for a document under the given
// stylesheet. The root box is stretched to cover the whole viewport.
func (e *Engine) Layout(tree *dom.Tree, sheet *css.Stylesheet) *LayoutBox {
	lc := &layoutContext{
		engine:   e,
		tree:     tree,
		resolver: css.NewResolver(tree, sheet),
	}
	e.log.Debug("layout start", "viewport_width", e.viewport.Width, "viewport_height", e.viewport.Height)
	root := lc.layoutRootElement(tree.Root())
	root.Dimensions.Width = e.viewport.Width
	if root.Dimensions.Height < e.viewport.Height {
		root.Dimensions.Height = e.viewport.Height
	}
	e.log.Debug("layout done", "height", root.Dimensions.Height)
	return root
}

// layoutContext carries per-layout state.
type layoutContext struct {
	engine   *Engine
	tree     *dom.Tree
	resolver *css.Resolver
}

func (lc *layoutContext) measure(s string, style *css.Style) float64 {
	return lc.engine.measurer.Measure(s, style.FontFamily(), style.FontSize(), style.Bold(), style.Italic())
}

func (lc *layoutContext) excluded(id dom.NodeID) bool {
	n := lc.tree.Get(id)
	return n.Type == dom.ElementNode && excludedTags[n.TagName]
}

func (lc *layoutContext) isBlock(id dom.NodeID) bool {
	n := lc.tree.Get(id)
	return n.Type == dom.ElementNode && blockTags[n.TagName]
}

func (lc *layoutContext) isListContainer(id dom.NodeID) bool {
	n := lc.tree.Get(id)
	return n.Type == dom.ElementNode && (n.TagName == "ul" || n.TagName == "ol")
}

func (lc *layoutContext) isListItem(id dom.NodeID) bool {
	return lc.tree.IsElement(id, "li")
}

func (lc *layoutContext) isRootElement(id dom.NodeID) bool {
	n := lc.tree.Get(id)
	if n.Type != dom.ElementNode {
		return false
	}
	switch n.TagName {
	case "document", "html", "body":
		return true
	}
	return false
}

// layoutRootElement lays out document, html and body boxes. These stretch
// to the viewport width; an explicit width on them (body { width: 60vw })
// narrows the content area instead, centered when margins are auto.
func (lc *layoutContext) layoutRootElement(id dom.NodeID) *LayoutBox {
	vp := lc.engine.viewport
	style := lc.resolver.StyleFor(id)
	margin := style.Margin(vp.Height)

	contentX := 0.0
	contentWidth := vp.Width
	if w, ok := style.WidthPx(vp.Width); ok {
		contentWidth = w
		if style.HasAutoHorizontalMargin() {
			remaining := vp.Width - w
			if remaining < 0 {
				remaining = 0
			}
			contentX = remaining / 2
		} else {
			contentX = margin.Left
		}
	}
	lc.engine.log.Debug("layout root", "tag", lc.tree.TagName(id), "content_x", contentX, "content_width", contentWidth)

	box := &LayoutBox{NodeID: id, Type: BlockBox, Style: style}
	currentY := margin.Top

	for _, childID := range lc.tree.Get(id).Children {
		if lc.excluded(childID) {
			continue
		}
		switch {
		case lc.isRootElement(childID):
			child := lc.layoutRootElement(childID)
			child.Dimensions.X = contentX
			child.Dimensions.Y = currentY
			child.Dimensions.Width = contentWidth
			currentY += child.Dimensions.Height
			box.Children = append(box.Children, child)
		case lc.isListContainer(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			list := lc.layoutListContainer(childID, contentX, currentY, contentWidth)
			currentY += list.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, list)
		case lc.isBlock(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			child := lc.layoutBlockElement(childID, contentX, currentY, contentWidth)
			currentY += child.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, child)
		default:
			line := lc.layoutInlineLine([]dom.NodeID{childID}, contentX, currentY, contentWidth)
			if line.Dimensions.Height > 0 {
				currentY += line.Dimensions.Height
				box.Children = append(box.Children, line)
			}
		}
	}

	totalHeight := currentY + margin.Bottom
	if totalHeight < vp.Height {
		totalHeight = vp.Height
	}
	box.Dimensions = Dimensions{X: 0, Y: 0, Width: vp.Width, Height: totalHeight}
	return box
}

// layoutBlockElement lays out one block using the border-box model: the
// box's width and height cover content plus padding, margins stay outside.
func (lc *layoutContext) layoutBlockElement(id dom.NodeID, x, y, containingWidth float64) *LayoutBox {
	vp := lc.engine.viewport
	style := lc.resolver.StyleFor(id)
	padding := style.Padding()
	margin := style.Margin(vp.Height)
	autoMargin := style.HasAutoHorizontalMargin()

	var contentWidth float64
	if w, ok := style.WidthPx(vp.Width); ok {
		contentWidth = w
	} else {
		horizontalMargin := margin.Left + margin.Right
		if autoMargin {
			horizontalMargin = 0
		}
		contentWidth = containingWidth - padding.Left - padding.Right - horizontalMargin
		if contentWidth < 0 {
			contentWidth = 0
		}
	}

	borderBoxWidth := contentWidth + padding.Left + padding.Right

	marginLeft := margin.Left
	if autoMargin {
		remaining := containingWidth - borderBoxWidth
		if remaining < 0 {
			remaining = 0
		}
		marginLeft = remaining / 2
	}

	borderBoxX := x + marginLeft
	contentX := borderBoxX + padding.Left
	contentY := y + padding.Top

	lc.engine.log.Debug("layout block", "tag", lc.tree.TagName(id),
		"x", borderBoxX, "y", y, "content_width", contentWidth)

	box := &LayoutBox{NodeID: id, Type: BlockBox, Style: style}
	currentY := contentY
	children := lc.tree.Get(id).Children

	for i := 0; i < len(children); {
		childID := children[i]
		if lc.excluded(childID) {
			i++
			continue
		}
		switch {
		case lc.isListContainer(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			list := lc.layoutListContainer(childID, contentX, currentY, contentWidth)
			currentY += list.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, list)
			i++
		case lc.isBlock(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			child := lc.layoutBlockElement(childID, contentX, currentY, contentWidth)
			currentY += child.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, child)
			i++
		default:
			// Collect the run of consecutive inline children into one
			// line layout pass.
			var inline []dom.NodeID
			for ; i < len(children); i++ {
				next := children[i]
				if lc.excluded(next) {
					continue
				}
				if lc.isBlock(next) {
					break
				}
				inline = append(inline, next)
			}
			line := lc.layoutInlineLine(inline, contentX, currentY, contentWidth)
			if line.Dimensions.Height > 0 {
				currentY += line.Dimensions.Height
				box.Children = append(box.Children, line)
			}
		}
	}

	contentHeight := currentY - contentY
	if contentHeight < 0 {
		contentHeight = 0
	}
	box.Dimensions = Dimensions{
		X:      borderBoxX,
		Y:      y,
		Width:  borderBoxWidth,
		Height: contentHeight + padding.Top + padding.Bottom,
	}
	return box
}

// layoutListContainer lays out a ul or ol with the default 40px left
// indentation (or the declared padding-left when present).
func (lc *layoutContext) layoutListContainer(id dom.NodeID, x, y, containingWidth float64) *LayoutBox {
	vp := lc.engine.viewport
	style := lc.resolver.StyleFor(id)
	padding := style.Padding()
	margin := style.Margin(vp.Height)
	ordered := lc.tree.IsElement(id, "ol")

	paddingLeft := padding.Left
	if paddingLeft <= 0 {
		paddingLeft = listIndent
	}

	borderBoxX := x + margin.Left
	contentWidth := containingWidth - margin.Left - margin.Right - paddingLeft - padding.Right
	if contentWidth < 0 {
		contentWidth = 0
	}
	contentX := borderBoxX + paddingLeft
	contentY := y + padding.Top

	lc.engine.log.Debug("layout list", "tag", lc.tree.TagName(id), "content_x", contentX)

	box := &LayoutBox{NodeID: id, Type: BlockBox, Style: style}
	currentY := contentY
	itemIndex := 0

	for _, childID := range lc.tree.Get(id).Children {
		if lc.excluded(childID) {
			continue
		}
		switch {
		case lc.isListItem(childID):
			itemIndex++
			item := lc.layoutListItem(childID, contentX, currentY, contentWidth, ordered, itemIndex)
			currentY += item.Dimensions.Height
			box.Children = append(box.Children, item)
		case lc.isListContainer(childID):
			nested := lc.layoutListContainer(childID, contentX, currentY, contentWidth)
			currentY += nested.Dimensions.Height
			box.Children = append(box.Children, nested)
		case lc.isBlock(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			child := lc.layoutBlockElement(childID, contentX, currentY, contentWidth)
			currentY += child.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, child)
		}
		// Inline content directly inside a list container is dropped.
	}

	contentHeight := currentY - contentY
	if contentHeight < 0 {
		contentHeight = 0
	}
	box.Dimensions = Dimensions{
		X:      borderBoxX,
		Y:      y,
		Width:  contentWidth + paddingLeft + padding.Right,
		Height: contentHeight + padding.Top + padding.Bottom,
	}
	return box
}

// layoutListItem lays out an li plus its generated marker. The marker
// hangs in the indentation to the left of the content edge.
func (lc *layoutContext) layoutListItem(id dom.NodeID, x, y, containingWidth float64, ordered bool, itemIndex int) *LayoutBox {
	style := lc.resolver.StyleFor(id)
	fontSize := style.FontSize()
	lineHeight := fontSize * lineHeightFactor

	markerText := "•"
	if ordered {
		markerText = fmt.Sprintf("%d.", itemIndex)
	}
	markerWidth := lc.measure(markerText, style)
	markerX := x - (markerWidth + fontSize*markerSpacingFactor)
	if markerX < 0 {
		markerX = 0
	}

	lc.engine.log.Debug("layout list item", "index", itemIndex, "marker", markerText)

	marker := &LayoutBox{
		NodeID: id,
		Type:   InlineBox,
		Dimensions: Dimensions{
			X: markerX, Y: y, Width: markerWidth, Height: lineHeight,
		},
		Style:       style,
		TextContent: markerText,
	}

	box := &LayoutBox{NodeID: id, Type: BlockBox, Style: style}
	box.Children = append(box.Children, marker)
	currentY := y
	children := lc.tree.Get(id).Children
	vp := lc.engine.viewport

	for i := 0; i < len(children); {
		childID := children[i]
		if lc.excluded(childID) {
			i++
			continue
		}
		switch {
		case lc.isListContainer(childID):
			nested := lc.layoutListContainer(childID, x, currentY, containingWidth)
			currentY += nested.Dimensions.Height
			box.Children = append(box.Children, nested)
			i++
		case lc.isBlock(childID):
			childMargin := lc.resolver.StyleFor(childID).Margin(vp.Height)
			currentY += childMargin.Top
			child := lc.layoutBlockElement(childID, x, currentY, containingWidth)
			currentY += child.Dimensions.Height + childMargin.Bottom
			box.Children = append(box.Children, child)
			i++
		default:
			var inline []dom.NodeID
			for ; i < len(children); i++ {
				next := children[i]
				if lc.excluded(next) {
					continue
				}
				if lc.isBlock(next) || lc.isListContainer(next) {
					break
				}
				inline = append(inline, next)
			}
			line := lc.layoutInlineLine(inline, x, currentY, containingWidth)
			if line.Dimensions.Height > 0 {
				currentY += line.Dimensions.Height
				box.Children = append(box.Children, line)
			}
		}
	}

	height := currentY - y
	if height < lineHeight {
		height = lineHeight
	}
	box.Dimensions = Dimensions{X: x, Y: y, Width: containingWidth, Height: height}
	return box
}

// layoutInlineLine flows a run of inline children into line boxes with
// greedy word wrapping. A word wider than the whole line falls back to
// character-level wrapping.
func (lc *layoutContext) layoutInlineLine(inline []dom.NodeID, x, y, width float64) *LayoutBox {
	var boxes []*LayoutBox
	currentX := x
	maxHeight := 0.0
	totalHeight := 0.0
	startY := y

	newLine := func() {
		totalHeight += maxHeight
		y += maxHeight
		currentX = x
		maxHeight = 0
	}

	for _, childID := range inline {
		n := lc.tree.Get(childID)
		if n.Type != dom.TextNode {
			child := lc.layoutInlineElement(childID, currentX, y, width-(currentX-x))
			if child.Dimensions.Width <= 0 && child.Dimensions.Height <= 0 {
				continue
			}
			if currentX+child.Dimensions.Width > x+width && currentX > x {
				newLine()
				child.Dimensions.X = currentX
				child.Dimensions.Y = y
			}
			if child.Dimensions.Height > maxHeight {
				maxHeight = child.Dimensions.Height
			}
			currentX += child.Dimensions.Width
			boxes = append(boxes, child)
			continue
		}

		if strings.TrimSpace(n.Text) == "" {
			continue
		}
		style := lc.resolver.StyleFor(childID)
		fontSize := style.FontSize()
		lineHeight := fontSize * lineHeightFactor
		words := strings.Fields(n.Text)
		spaceWidth := lc.measure(" ", style)

		for wi, word := range words {
			wordWidth := lc.measure(word, style)

			if currentX+wordWidth > x+width && currentX > x {
				if wordWidth > width {
					// Word wider than the line: split at character
					// boundaries.
					lc.engine.log.Debug("character wrap", "word", word, "width", wordWidth)
					remaining := []rune(word)
					for len(remaining) > 0 {
						available := width
						if currentX > x {
							available = x + width - currentX
						}
						count := 0
						accumulated := 0.0
						for _, r := range remaining {
							cw := lc.measure(string(r), style)
							if accumulated+cw > available && count > 0 {
								break
							}
							accumulated += cw
							count++
						}
						if count == 0 {
							newLine()
							continue
						}
						chunk := string(remaining[:count])
						remaining = remaining[count:]
						chunkWidth := lc.measure(chunk, style)
						boxes = append(boxes, &LayoutBox{
							NodeID:      childID,
							Type:        InlineBox,
							Dimensions:  Dimensions{X: currentX, Y: y, Width: chunkWidth, Height: lineHeight},
							Style:       style,
							TextContent: chunk,
						})
						if lineHeight > maxHeight {
							maxHeight = lineHeight
						}
						currentX += chunkWidth
						if len(remaining) > 0 {
							newLine()
						}
					}
					continue
				}
				newLine()
			}

			boxes = append(boxes, &LayoutBox{
				NodeID:      childID,
				Type:        InlineBox,
				Dimensions:  Dimensions{X: currentX, Y: y, Width: wordWidth, Height: lineHeight},
				Style:       style,
				TextContent: word,
			})
			if lineHeight > maxHeight {
				maxHeight = lineHeight
			}
			currentX += wordWidth

			// Trailing space only when it still fits on the line.
			if wi < len(words)-1 && currentX+spaceWidth <= x+width {
				currentX += spaceWidth
			}
		}
	}

	totalHeight += maxHeight

	visible := boxes[:0]
	for _, b := range boxes {
		if b.Dimensions.Width > 0 || b.Dimensions.Height > 0 {
			visible = append(visible, b)
		}
	}
	if len(visible) == 0 || totalHeight <= 0 {
		return &LayoutBox{
			NodeID:     dom.NoParent,
			Type:       BlockBox,
			Dimensions: Dimensions{X: x, Y: startY},
			Style:      css.NewStyle(),
		}
	}
	return &LayoutBox{
		NodeID:     dom.NoParent,
		Type:       BlockBox,
		Dimensions: Dimensions{X: x, Y: startY, Width: width, Height: totalHeight},
		Style:      css.NewStyle(),
		Children:   visible,
	}
}

// layoutInlineElement lays out a non-block element in flow. Images get a
// fixed 100x80 placeholder size; other inline elements wrap their
// children.
func (lc *layoutContext) layoutInlineElement(id dom.NodeID, x, y, maxWidth float64) *LayoutBox {
	style := lc.resolver.StyleFor(id)
	n := lc.tree.Get(id)

	if n.Type == dom.TextNode {
		if strings.TrimSpace(n.Text) == "" {
			return &LayoutBox{NodeID: id, Type: InlineBox, Dimensions: Dimensions{X: x, Y: y}, Style: style}
		}
		fontSize := style.FontSize()
		w := lc.measure(n.Text, style)
		if w > maxWidth {
			w = maxWidth
		}
		return &LayoutBox{
			NodeID:      id,
			Type:        InlineBox,
			Dimensions:  Dimensions{X: x, Y: y, Width: w, Height: fontSize * lineHeightFactor},
			Style:       style,
			TextContent: n.Text,
		}
	}

	if n.TagName == "img" {
		w := 100.0
		if w > maxWidth {
			w = maxWidth
		}
		return &LayoutBox{
			NodeID:     id,
			Type:       InlineBox,
			Dimensions: Dimensions{X: x, Y: y, Width: w, Height: 80},
			Style:      style,
		}
	}

	box := &LayoutBox{NodeID: id, Type: InlineBox, Style: style}
	currentX := x
	maxHeight := 0.0
	for _, childID := range n.Children {
		if lc.excluded(childID) {
			continue
		}
		remaining := x + maxWidth - currentX
		if remaining < 0 {
			remaining = 0
		}
		child := lc.layoutInlineElement(childID, currentX, y, remaining)
		if child.Dimensions.Width <= 0 && child.Dimensions.Height <= 0 {
			continue
		}
		if child.Dimensions.Height > maxHeight {
			maxHeight = child.Dimensions.Height
		}
		currentX += child.Dimensions.Width
		box.Children = append(box.Children, child)
	}
	w := currentX - x
	if w > maxWidth {
		w = maxWidth
	}
	box.Dimensions = Dimensions{X: x, Y: y, Width: w, Height: maxHeight}
	return box
}
