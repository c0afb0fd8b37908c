package html

import (
	"strings"
	"unicode"

	"velum/pkg/dom"
)

// state is the tokenizer's current position in the markup state machine.
// The set follows the WHATWG tokenization states, trimmed to the constructs
// this engine recognizes.
type state int

const (
	stateData state = iota
	stateTagOpen
	stateEndTagOpen
	stateTagName
	stateBeforeAttributeName
	stateAttributeName
	stateAfterAttributeName
	stateBeforeAttributeValue
	stateAttributeValueDoubleQuoted
	stateAttributeValueSingleQuoted
	stateAttributeValueUnquoted
	stateAfterAttributeValueQuoted
	stateSelfClosingStartTag
	stateMarkupDeclarationOpen
	stateCommentStart
	stateCommentStartDash
	stateComment
	stateCommentEndDash
	stateCommentEnd
	stateBogusComment
	stateDoctype
	stateBeforeDoctypeName
	stateDoctypeName
	stateAfterDoctypeName
	stateRawtext
	stateRawtextLessThanSign
	stateRawtextEndTagOpen
	stateRawtextEndTagName
	stateRCDATA
	stateRCDATALessThanSign
	stateRCDATAEndTagOpen
	stateRCDATAEndTagName
)

const eofRune rune = -1

// replacementChar substitutes NUL bytes in data states: input is never
// silently dropped.
const replacementChar = '�'

// Tokenizer converts a character stream into Tokens, one at a time. It is an
// explicit state machine with a one-rune reconsume buffer; it never fails on
// malformed input, and the final token is always EOF.
type Tokenizer struct {
	input []rune
	pos   int
	state state

	queue []Token // tokens emitted but not yet delivered
	done  bool

	// current tag under construction
	tagName     strings.Builder
	tagIsEnd    bool
	selfClosing bool
	attrs       []dom.Attribute
	attrName    strings.Builder
	attrValue   strings.Builder
	hasAttr     bool

	comment strings.Builder
	doctype strings.Builder

	// raw-content model bookkeeping: rawTag is the element whose end tag
	// terminates RAWTEXT/RCDATA; tempBuf holds a candidate end-tag name so
	// it can be replayed as characters on a mismatch.
	rawTag  string
	tempBuf []rune
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{
		input: []rune(input),
		state: stateData,
	}
}

func (t *Tokenizer) read() rune {
	if t.pos >= len(t.input) {
		t.pos++
		return eofRune
	}
	r := t.input[t.pos]
	t.pos++
	return r
}

// unread pushes the current rune back so the next state re-reads it.
func (t *Tokenizer) unread() {
	if t.pos > 0 {
		t.pos--
	}
}

func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return eofRune
	}
	return t.input[t.pos]
}

func (t *Tokenizer) emit(tok Token) {
	t.queue = append(t.queue, tok)
}

func (t *Tokenizer) emitChar(r rune) {
	t.emit(Token{Type: TokenCharacter, Char: r})
}

func (t *Tokenizer) emitString(s string) {
	for _, r := range s {
		t.emitChar(r)
	}
}

func (t *Tokenizer) emitEOF() {
	t.emit(Token{Type: TokenEOF})
	t.done = true
}

// resetTag clears the tag under construction.
func (t *Tokenizer) resetTag(end bool) {
	t.tagName.Reset()
	t.tagIsEnd = end
	t.selfClosing = false
	t.attrs = nil
	t.attrName.Reset()
	t.attrValue.Reset()
	t.hasAttr = false
}

// commitAttr finishes the attribute under construction. Duplicate names are
// kept in order; lookups resolve first-write-wins downstream.
func (t *Tokenizer) commitAttr() {
	if !t.hasAttr {
		return
	}
	t.attrs = append(t.attrs, dom.Attribute{
		Name:  t.attrName.String(),
		Value: t.attrValue.String(),
	})
	t.attrName.Reset()
	t.attrValue.Reset()
	t.hasAttr = false
}

// emitTag emits the tag under construction and picks the next content model:
// script/style switch to RAWTEXT, textarea/title to RCDATA, everything else
// back to data.
func (t *Tokenizer) emitTag() {
	t.commitAttr()
	name := t.tagName.String()
	if t.tagIsEnd {
		// Attributes on end tags are parse errors; drop them.
		t.emit(Token{Type: TokenEndTag, Name: name})
		t.state = stateData
		return
	}
	t.emit(Token{
		Type:        TokenStartTag,
		Name:        name,
		Attributes:  t.attrs,
		SelfClosing: t.selfClosing,
	})
	if t.selfClosing {
		t.state = stateData
		return
	}
	switch name {
	case "script", "style":
		t.rawTag = name
		t.state = stateRawtext
	case "textarea", "title":
		t.rawTag = name
		t.state = stateRCDATA
	default:
		t.state = stateData
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}

// NextToken returns the next token. After EOF has been delivered it keeps
// returning EOF; the sequence is restartable only from the start.
func (t *Tokenizer) NextToken() Token {
	for {
		if len(t.queue) > 0 {
			tok := t.queue[0]
			t.queue = t.queue[1:]
			return tok
		}
		if t.done {
			return Token{Type: TokenEOF}
		}
		t.step()
	}
}

// Tokenize consumes the whole input and returns every token up to and
// including EOF.
func (t *Tokenizer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := t.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// step reads one rune and advances the state machine, possibly queueing
// tokens.
func (t *Tokenizer) step() {
	r := t.read()

	switch t.state {

	case stateData:
		switch {
		case r == eofRune:
			t.emitEOF()
		case r == '<':
			t.state = stateTagOpen
		case r == 0:
			t.emitChar(replacementChar)
		default:
			t.emitChar(r)
		}

	case stateTagOpen:
		switch {
		case r == '!':
			t.state = stateMarkupDeclarationOpen
		case r == '/':
			t.state = stateEndTagOpen
		case r == '?':
			t.comment.Reset()
			t.unread()
			t.state = stateBogusComment
		case isLetter(r):
			t.resetTag(false)
			t.unread()
			t.state = stateTagName
		case r == eofRune:
			t.emitChar('<')
			t.emitEOF()
		default:
			t.emitChar('<')
			t.unread()
			t.state = stateData
		}

	case stateEndTagOpen:
		switch {
		case isLetter(r):
			t.resetTag(true)
			t.unread()
			t.state = stateTagName
		case r == '>':
			t.state = stateData
		case r == eofRune:
			t.emitString("</")
			t.emitEOF()
		default:
			t.comment.Reset()
			t.unread()
			t.state = stateBogusComment
		}

	case stateTagName:
		switch {
		case isSpace(r):
			t.state = stateBeforeAttributeName
		case r == '/':
			t.state = stateSelfClosingStartTag
		case r == '>':
			t.emitTag()
		case r == eofRune:
			// Unterminated tag still yields its partial token.
			t.emitTag()
			t.emitEOF()
		case r == 0:
			t.tagName.WriteRune(replacementChar)
		default:
			t.tagName.WriteRune(toLower(r))
		}

	case stateBeforeAttributeName:
		switch {
		case isSpace(r):
		case r == '/':
			t.state = stateSelfClosingStartTag
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		default:
			t.hasAttr = true
			t.unread()
			t.state = stateAttributeName
		}

	case stateAttributeName:
		switch {
		case isSpace(r):
			t.state = stateAfterAttributeName
		case r == '/':
			t.commitAttr()
			t.state = stateSelfClosingStartTag
		case r == '=':
			t.state = stateBeforeAttributeValue
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		case r == 0:
			t.attrName.WriteRune(replacementChar)
		default:
			t.attrName.WriteRune(toLower(r))
		}

	case stateAfterAttributeName:
		switch {
		case isSpace(r):
		case r == '/':
			t.commitAttr()
			t.state = stateSelfClosingStartTag
		case r == '=':
			t.state = stateBeforeAttributeValue
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		default:
			t.commitAttr()
			t.hasAttr = true
			t.unread()
			t.state = stateAttributeName
		}

	case stateBeforeAttributeValue:
		switch {
		case isSpace(r):
		case r == '"':
			t.state = stateAttributeValueDoubleQuoted
		case r == '\'':
			t.state = stateAttributeValueSingleQuoted
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		default:
			t.unread()
			t.state = stateAttributeValueUnquoted
		}

	case stateAttributeValueDoubleQuoted, stateAttributeValueSingleQuoted:
		quote := rune('"')
		if t.state == stateAttributeValueSingleQuoted {
			quote = '\''
		}
		switch {
		case r == quote:
			t.commitAttr()
			t.state = stateAfterAttributeValueQuoted
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		case r == 0:
			t.attrValue.WriteRune(replacementChar)
		default:
			t.attrValue.WriteRune(r)
		}

	case stateAttributeValueUnquoted:
		switch {
		case isSpace(r):
			t.commitAttr()
			t.state = stateBeforeAttributeName
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		case r == 0:
			t.attrValue.WriteRune(replacementChar)
		default:
			t.attrValue.WriteRune(r)
		}

	case stateAfterAttributeValueQuoted:
		switch {
		case isSpace(r):
			t.state = stateBeforeAttributeName
		case r == '/':
			t.state = stateSelfClosingStartTag
		case r == '>':
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		default:
			t.unread()
			t.state = stateBeforeAttributeName
		}

	case stateSelfClosingStartTag:
		switch {
		case r == '>':
			t.selfClosing = true
			t.emitTag()
		case r == eofRune:
			t.emitTag()
			t.emitEOF()
		default:
			t.unread()
			t.state = stateBeforeAttributeName
		}

	case stateMarkupDeclarationOpen:
		switch {
		case r == '-' && t.peek() == '-':
			t.read()
			t.comment.Reset()
			t.state = stateCommentStart
		case toLower(r) == 'd' && t.peekFold("octype"):
			t.pos += len("octype")
			t.state = stateDoctype
		case r == eofRune:
			t.emit(Token{Type: TokenComment})
			t.emitEOF()
		default:
			t.comment.Reset()
			t.unread()
			t.state = stateBogusComment
		}

	case stateCommentStart:
		switch {
		case r == '-':
			t.state = stateCommentStartDash
		case r == '>':
			t.emitComment()
			t.state = stateData
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		default:
			t.unread()
			t.state = stateComment
		}

	case stateCommentStartDash:
		switch {
		case r == '-':
			t.state = stateCommentEnd
		case r == '>':
			t.emitComment()
			t.state = stateData
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		default:
			t.comment.WriteByte('-')
			t.unread()
			t.state = stateComment
		}

	case stateComment:
		switch {
		case r == '-':
			t.state = stateCommentEndDash
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		case r == 0:
			t.comment.WriteRune(replacementChar)
		default:
			t.comment.WriteRune(r)
		}

	case stateCommentEndDash:
		switch {
		case r == '-':
			t.state = stateCommentEnd
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		default:
			t.comment.WriteByte('-')
			t.unread()
			t.state = stateComment
		}

	case stateCommentEnd:
		// Dash counting: a run of dashes only closes the comment when
		// followed by '>', so embedded "--" sequences survive.
		switch {
		case r == '>':
			t.emitComment()
			t.state = stateData
		case r == '-':
			t.comment.WriteByte('-')
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		default:
			t.comment.WriteString("--")
			t.unread()
			t.state = stateComment
		}

	case stateBogusComment:
		switch {
		case r == '>':
			t.emitComment()
			t.state = stateData
		case r == eofRune:
			t.emitComment()
			t.emitEOF()
		case r == 0:
			t.comment.WriteRune(replacementChar)
		default:
			t.comment.WriteRune(r)
		}

	case stateDoctype:
		switch {
		case isSpace(r):
			t.state = stateBeforeDoctypeName
		case r == eofRune:
			t.emitDoctype()
			t.emitEOF()
		default:
			t.unread()
			t.state = stateBeforeDoctypeName
		}

	case stateBeforeDoctypeName:
		switch {
		case isSpace(r):
		case r == '>':
			t.emitDoctype()
			t.state = stateData
		case r == eofRune:
			t.emitDoctype()
			t.emitEOF()
		default:
			t.doctype.Reset()
			t.unread()
			t.state = stateDoctypeName
		}

	case stateDoctypeName:
		switch {
		case isSpace(r):
			t.state = stateAfterDoctypeName
		case r == '>':
			t.emitDoctype()
			t.state = stateData
		case r == eofRune:
			t.emitDoctype()
			t.emitEOF()
		default:
			t.doctype.WriteRune(toLower(r))
		}

	case stateAfterDoctypeName:
		// Public and system identifiers are swallowed, not captured.
		switch {
		case r == '>':
			t.emitDoctype()
			t.state = stateData
		case r == eofRune:
			t.emitDoctype()
			t.emitEOF()
		}

	case stateRawtext, stateRCDATA:
		switch {
		case r == '<':
			if t.state == stateRawtext {
				t.state = stateRawtextLessThanSign
			} else {
				t.state = stateRCDATALessThanSign
			}
		case r == eofRune:
			t.emitEOF()
		case r == 0:
			t.emitChar(replacementChar)
		default:
			t.emitChar(r)
		}

	case stateRawtextLessThanSign, stateRCDATALessThanSign:
		if r == '/' {
			t.tempBuf = t.tempBuf[:0]
			if t.state == stateRawtextLessThanSign {
				t.state = stateRawtextEndTagOpen
			} else {
				t.state = stateRCDATAEndTagOpen
			}
		} else {
			t.emitChar('<')
			if r != eofRune {
				t.unread()
			}
			t.state = t.rawDataState()
		}

	case stateRawtextEndTagOpen, stateRCDATAEndTagOpen:
		if isLetter(r) {
			t.resetTag(true)
			t.unread()
			if t.state == stateRawtextEndTagOpen {
				t.state = stateRawtextEndTagName
			} else {
				t.state = stateRCDATAEndTagName
			}
		} else {
			t.emitString("</")
			if r != eofRune {
				t.unread()
			}
			t.state = t.rawDataState()
		}

	case stateRawtextEndTagName, stateRCDATAEndTagName:
		appropriate := t.tagName.String() == t.rawTag
		switch {
		case isLetter(r):
			t.tagName.WriteRune(toLower(r))
			t.tempBuf = append(t.tempBuf, r)
		case isSpace(r) && appropriate:
			t.rawTag = ""
			t.state = stateBeforeAttributeName
		case r == '/' && appropriate:
			t.rawTag = ""
			t.state = stateSelfClosingStartTag
		case r == '>' && appropriate:
			t.rawTag = ""
			t.emitTag()
		default:
			// Not the matching end tag: replay "</" and the candidate
			// name as plain characters.
			t.emitString("</")
			for _, c := range t.tempBuf {
				t.emitChar(c)
			}
			if r == eofRune {
				t.emitEOF()
				return
			}
			t.unread()
			t.state = t.rawDataState()
		}
	}
}

// rawDataState returns the content-model data state matching rawTag's kind.
func (t *Tokenizer) rawDataState() state {
	if t.rawTag == "script" || t.rawTag == "style" {
		return stateRawtext
	}
	return stateRCDATA
}

// peekFold reports whether the upcoming input matches s case-insensitively.
func (t *Tokenizer) peekFold(s string) bool {
	if t.pos+len(s) > len(t.input) {
		return false
	}
	for i, r := range s {
		if unicode.ToLower(t.input[t.pos+i]) != r {
			return false
		}
	}
	return true
}

func (t *Tokenizer) emitComment() {
	t.emit(Token{Type: TokenComment, Data: t.comment.String()})
	t.comment.Reset()
}

func (t *Tokenizer) emitDoctype() {
	name := t.doctype.String()
	if name == "" {
		name = "html"
	}
	t.emit(Token{Type: TokenDoctype, Name: name})
	t.doctype.Reset()
}
