package css

import "fmt"

// TokenType identifies a CSS token produced by the tokenizer.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenAtKeyword
	TokenHash
	TokenDot
	TokenString
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenURL
	TokenFunction
	TokenColon
	TokenDoubleColon
	TokenSemicolon
	TokenComma
	TokenOpenBrace
	TokenCloseBrace
	TokenOpenParen
	TokenCloseParen
	TokenOpenBracket
	TokenCloseBracket
	TokenAsterisk
	TokenGreater
	TokenPlus
	TokenTilde
	TokenEquals
	TokenIncludes       // ~=
	TokenDashMatch      // |=
	TokenPrefixMatch    // ^=
	TokenSuffixMatch    // $=
	TokenSubstringMatch // *=
	TokenBang
	TokenDelim
)

// Token is a single lexical unit. Value carries the text for idents,
// strings, hashes and delimiters; Number and Unit are set for numeric
// tokens.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Unit   string
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return fmt.Sprintf("ident(%s)", t.Value)
	case TokenAtKeyword:
		return fmt.Sprintf("@%s", t.Value)
	case TokenHash:
		return fmt.Sprintf("#%s", t.Value)
	case TokenString:
		return fmt.Sprintf("string(%q)", t.Value)
	case TokenNumber:
		return fmt.Sprintf("number(%g)", t.Number)
	case TokenPercentage:
		return fmt.Sprintf("percentage(%g)", t.Number)
	case TokenDimension:
		return fmt.Sprintf("dimension(%g%s)", t.Number, t.Unit)
	case TokenURL:
		return fmt.Sprintf("url(%s)", t.Value)
	case TokenFunction:
		return fmt.Sprintf("function(%s)", t.Value)
	case TokenDelim:
		return fmt.Sprintf("delim(%s)", t.Value)
	}
	return t.Value
}
