package html

import (
	"log/slog"
	"strings"

	"velum/pkg/dom"
)

// insertionMode is the tree builder's interpretation context for incoming
// tokens.
type insertionMode int

const (
	modeInitial insertionMode = iota
	modeBeforeHTML
	modeBeforeHead
	modeInHead
	modeAfterHead
	modeInBody
	modeAfterBody
)

func (m insertionMode) String() string {
	switch m {
	case modeInitial:
		return "initial"
	case modeBeforeHTML:
		return "before-html"
	case modeBeforeHead:
		return "before-head"
	case modeInHead:
		return "in-head"
	case modeAfterHead:
		return "after-head"
	case modeInBody:
		return "in-body"
	case modeAfterBody:
		return "after-body"
	}
	return "unknown"
}

// autoClosingTags close a previously open element of the same name instead
// of nesting inside it.
var autoClosingTags = map[string]bool{
	"p": true, "li": true, "dd": true, "dt": true,
	"option": true, "optgroup": true, "tr": true, "td": true, "th": true,
}

// headOnlyTags belong in <head>; anything else seen in a head mode closes
// the head implicitly.
var headOnlyTags = map[string]bool{
	"meta": true, "link": true, "title": true, "style": true, "base": true,
}

// Document is the output of a parse: the node tree plus the metadata a
// caller needs to continue the pipeline (title text, collected stylesheet
// sources, hrefs of external stylesheets still to fetch).
type Document struct {
	Tree            *dom.Tree
	Title           string
	Stylesheets     []string
	StylesheetLinks []string
}

// TreeBuilder consumes tokens under the current insertion mode and builds a
// best-effort tree. It never fails: malformed input is recovered, not
// rejected.
type TreeBuilder struct {
	tree    *dom.Tree
	stack   []dom.NodeID // open elements, root always at the bottom
	mode    insertionMode
	pending strings.Builder // buffered character tokens
	log     *slog.Logger
}

func NewTreeBuilder() *TreeBuilder {
	tree := dom.NewTree()
	return &TreeBuilder{
		tree:  tree,
		stack: []dom.NodeID{tree.Root()},
		mode:  modeInitial,
		log:   slog.New(discardHandler{}),
	}
}

// SetLogger installs a diagnostics sink for recoverable parse events.
func (b *TreeBuilder) SetLogger(l *slog.Logger) {
	if l != nil {
		b.log = l
	}
}

// Parse tokenizes input and builds the document.
func Parse(input string) *Document {
	return ParseWithLogger(input, nil)
}

// ParseWithLogger is Parse with a caller-supplied diagnostics sink.
func ParseWithLogger(input string, l *slog.Logger) *Document {
	b := NewTreeBuilder()
	b.SetLogger(l)
	b.Run(NewTokenizer(input))
	return b.Document()
}

// Run feeds every token from tok through the builder.
func (b *TreeBuilder) Run(tok *Tokenizer) {
	for {
		token := tok.NextToken()
		if token.Type == TokenEOF {
			b.flushText()
			return
		}
		b.processToken(token)
	}
}

// Document finalizes and returns the parse result.
func (b *TreeBuilder) Document() *Document {
	doc := &Document{Tree: b.tree}
	for _, id := range b.tree.FindAll("title") {
		doc.Title = strings.TrimSpace(b.tree.TextContent(id))
		break
	}
	for _, id := range b.tree.FindAll("style") {
		if css := b.tree.TextContent(id); strings.TrimSpace(css) != "" {
			doc.Stylesheets = append(doc.Stylesheets, css)
		}
	}
	for _, id := range b.tree.FindAll("link") {
		n := b.tree.Get(id)
		rel, _ := n.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "stylesheet") {
			continue
		}
		if href, ok := n.Attr("href"); ok && strings.TrimSpace(href) != "" {
			doc.StylesheetLinks = append(doc.StylesheetLinks, strings.TrimSpace(href))
		}
	}
	return doc
}

func (b *TreeBuilder) top() dom.NodeID {
	return b.stack[len(b.stack)-1]
}

func (b *TreeBuilder) push(id dom.NodeID) {
	b.stack = append(b.stack, id)
}

func (b *TreeBuilder) pop() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// flushText turns buffered characters into a single text node, unless the
// run is pure whitespace (dropped to avoid degenerate text boxes).
func (b *TreeBuilder) flushText() {
	if b.pending.Len() == 0 {
		return
	}
	text := b.pending.String()
	b.pending.Reset()
	if strings.TrimSpace(text) == "" {
		return
	}
	b.tree.CreateText(text, b.top())
}

func (b *TreeBuilder) processToken(token Token) {
	switch token.Type {
	case TokenCharacter:
		b.pending.WriteRune(token.Char)

	case TokenComment:
		// Comments are flushed past, not inserted.
		b.flushText()

	case TokenDoctype:
		b.flushText()
		if b.mode == modeInitial {
			b.mode = modeBeforeHTML
		}

	case TokenStartTag:
		b.flushText()
		b.startTag(token)

	case TokenEndTag:
		b.flushText()
		b.endTag(token.Name)
	}
}

// ensureHTML synthesizes the html element if the parse reaches content
// before seeing one.
func (b *TreeBuilder) ensureHTML(attrs []dom.Attribute) {
	html := b.tree.CreateElement("html", attrs, b.tree.Root())
	b.push(html)
	b.mode = modeBeforeHead
}

func (b *TreeBuilder) startTag(token Token) {
	tag := token.Name

	if b.mode == modeInitial {
		b.mode = modeBeforeHTML
	}

	if b.mode == modeBeforeHTML {
		if tag == "html" {
			b.ensureHTML(token.Attributes)
			return
		}
		b.ensureHTML(nil)
		// Reprocess this tag under the new mode.
	}

	if b.mode == modeBeforeHead || b.mode == modeInHead {
		if tag == "head" && b.mode == modeBeforeHead {
			head := b.tree.CreateElement("head", token.Attributes, b.top())
			b.push(head)
			b.mode = modeInHead
			return
		}
		if headOnlyTags[tag] {
			if b.mode == modeBeforeHead {
				head := b.tree.CreateElement("head", nil, b.top())
				b.push(head)
				b.mode = modeInHead
			}
			id := b.tree.CreateElement(tag, token.Attributes, b.top())
			if !token.SelfClosing && !IsVoidElement(tag) {
				b.push(id)
			}
			return
		}
		// Anything else closes the head and moves on to the body.
		if b.mode == modeInHead {
			b.pop()
		}
		b.mode = modeAfterHead
	}

	if b.mode == modeAfterHead || b.mode == modeAfterBody {
		body := b.tree.CreateElement("body", nil, b.top())
		b.push(body)
		b.mode = modeInBody
		if tag == "body" {
			return
		}
	}

	// In body.
	if autoClosingTags[tag] {
		b.autoClose(tag)
	}
	id := b.tree.CreateElement(tag, token.Attributes, b.top())
	if !token.SelfClosing && !IsVoidElement(tag) {
		b.push(id)
	}
}

// autoClose pops a previously open element of the same auto-closing tag,
// stopping at scope boundaries: body/html/document always, the list
// container for li, the definition list for dt/dd.
func (b *TreeBuilder) autoClose(tag string) {
	for len(b.stack) > 1 {
		topTag := b.tree.TagName(b.top())
		if topTag == tag {
			b.log.Debug("auto-closing open element", "tag", tag)
			b.pop()
			return
		}
		switch topTag {
		case "body", "html", "document":
			return
		}
		if tag == "li" && (topTag == "ul" || topTag == "ol") {
			return
		}
		if (tag == "dt" || tag == "dd") && topTag == "dl" {
			return
		}
		b.pop()
	}
}

func (b *TreeBuilder) endTag(tag string) {
	// In head, matching end tags pop cleanly; anything unexpected exits
	// the head and is reprocessed below.
	if b.mode == modeInHead {
		if tag == "head" {
			b.pop()
			b.mode = modeAfterHead
			return
		}
		if headOnlyTags[tag] {
			if b.tree.TagName(b.top()) == tag {
				b.pop()
			}
			return
		}
		b.pop()
		b.mode = modeAfterHead
	}

	// Closing a non-auto-closing tag first sweeps any dangling
	// auto-closing elements off the stack (the unclosed-<p> pattern).
	if b.mode == modeInBody && !autoClosingTags[tag] {
		for len(b.stack) > 1 {
			topTag := b.tree.TagName(b.top())
			if !autoClosingTags[topTag] || topTag == tag {
				break
			}
			b.log.Debug("implicitly closing element", "tag", topTag, "closing", tag)
			b.pop()
		}
	}

	// Pop until the matching tag or a scope boundary. Mismatched end tags
	// are tolerated.
	for len(b.stack) > 1 {
		topTag := b.tree.TagName(b.top())
		if topTag == tag {
			b.pop()
			break
		}
		switch topTag {
		case "body", "html", "document":
			b.log.Debug("ignoring mismatched end tag", "tag", tag)
			goto fixup
		}
		b.pop()
	}

fixup:
	// Re-derive the mode from whatever is now on top.
	switch b.tree.TagName(b.top()) {
	case "body":
		b.mode = modeInBody
	case "head":
		b.mode = modeInHead
	case "html":
		b.mode = modeAfterHead
	case "document":
		b.mode = modeAfterBody
	}
}
