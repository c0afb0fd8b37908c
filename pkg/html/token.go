package html

import (
	"fmt"

	"velum/pkg/dom"
)

type TokenType int

const (
	TokenDoctype TokenType = iota
	TokenStartTag
	TokenEndTag
	TokenComment
	TokenCharacter
	TokenEOF
)

// Token is one unit of tokenizer output. Which fields are meaningful depends
// on Type: Name for doctype and tag tokens, Attributes and SelfClosing for
// start tags, Data for comments, Char for character tokens.
type Token struct {
	Type        TokenType
	Name        string
	Attributes  []dom.Attribute
	SelfClosing bool
	Data        string
	Char        rune
}

func (t Token) String() string {
	switch t.Type {
	case TokenDoctype:
		return fmt.Sprintf("Doctype(%s)", t.Name)
	case TokenStartTag:
		if t.SelfClosing {
			return fmt.Sprintf("StartTag(%s/)", t.Name)
		}
		return fmt.Sprintf("StartTag(%s)", t.Name)
	case TokenEndTag:
		return fmt.Sprintf("EndTag(%s)", t.Name)
	case TokenComment:
		return fmt.Sprintf("Comment(%q)", t.Data)
	case TokenCharacter:
		return fmt.Sprintf("Character(%q)", t.Char)
	case TokenEOF:
		return "EOF"
	}
	return "Unknown"
}

// voidElements have no end tag and never nest content.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag is an HTML void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}
