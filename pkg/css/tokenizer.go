package css

import "strconv"

// Tokenizer lexes a stylesheet into tokens. It never fails: unterminated
// constructs are recovered at the nearest safe point and lexing continues.
type Tokenizer struct {
	input []rune
	pos   int
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: []rune(input)}
}

// Tokenize returns every token in the input, ending with EOF.
func (t *Tokenizer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := t.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (t *Tokenizer) peek() rune {
	return t.peekAt(0)
}

func (t *Tokenizer) peekAt(n int) rune {
	if t.pos+n >= len(t.input) {
		return eof
	}
	return t.input[t.pos+n]
}

func (t *Tokenizer) consume() rune {
	c := t.peek()
	if c != eof {
		t.pos++
	}
	return c
}

const eof rune = -1

// Next returns the next token, skipping whitespace and comments.
func (t *Tokenizer) Next() Token {
	t.skipWhitespaceAndComments()

	c := t.peek()
	switch {
	case c == eof:
		return Token{Type: TokenEOF}
	case isNameStart(c) || (c == '-' && isNameStart(t.peekAt(1))):
		return t.consumeIdentLike()
	case isDigit(c),
		c == '.' && isDigit(t.peekAt(1)),
		(c == '+' || c == '-') && (isDigit(t.peekAt(1)) || (t.peekAt(1) == '.' && isDigit(t.peekAt(2)))):
		return t.consumeNumeric()
	}

	t.consume()
	switch c {
	case '#':
		if isName(t.peek()) {
			return Token{Type: TokenHash, Value: t.consumeName()}
		}
		return Token{Type: TokenDelim, Value: "#"}
	case '.':
		return Token{Type: TokenDot, Value: "."}
	case '"', '\'':
		return t.consumeString(c)
	case '@':
		if isNameStart(t.peek()) || (t.peek() == '-' && isNameStart(t.peekAt(1))) {
			return Token{Type: TokenAtKeyword, Value: t.consumeName()}
		}
		return Token{Type: TokenDelim, Value: "@"}
	case ':':
		if t.peek() == ':' {
			t.consume()
			return Token{Type: TokenDoubleColon, Value: "::"}
		}
		return Token{Type: TokenColon, Value: ":"}
	case ';':
		return Token{Type: TokenSemicolon, Value: ";"}
	case ',':
		return Token{Type: TokenComma, Value: ","}
	case '{':
		return Token{Type: TokenOpenBrace, Value: "{"}
	case '}':
		return Token{Type: TokenCloseBrace, Value: "}"}
	case '(':
		return Token{Type: TokenOpenParen, Value: "("}
	case ')':
		return Token{Type: TokenCloseParen, Value: ")"}
	case '[':
		return Token{Type: TokenOpenBracket, Value: "["}
	case ']':
		return Token{Type: TokenCloseBracket, Value: "]"}
	case '*':
		if t.peek() == '=' {
			t.consume()
			return Token{Type: TokenSubstringMatch, Value: "*="}
		}
		return Token{Type: TokenAsterisk, Value: "*"}
	case '>':
		return Token{Type: TokenGreater, Value: ">"}
	case '+':
		return Token{Type: TokenPlus, Value: "+"}
	case '~':
		if t.peek() == '=' {
			t.consume()
			return Token{Type: TokenIncludes, Value: "~="}
		}
		return Token{Type: TokenTilde, Value: "~"}
	case '|':
		if t.peek() == '=' {
			t.consume()
			return Token{Type: TokenDashMatch, Value: "|="}
		}
		return Token{Type: TokenDelim, Value: "|"}
	case '^':
		if t.peek() == '=' {
			t.consume()
			return Token{Type: TokenPrefixMatch, Value: "^="}
		}
		return Token{Type: TokenDelim, Value: "^"}
	case '$':
		if t.peek() == '=' {
			t.consume()
			return Token{Type: TokenSuffixMatch, Value: "$="}
		}
		return Token{Type: TokenDelim, Value: "$"}
	case '=':
		return Token{Type: TokenEquals, Value: "="}
	case '!':
		return Token{Type: TokenBang, Value: "!"}
	}
	return Token{Type: TokenDelim, Value: string(c)}
}

func (t *Tokenizer) skipWhitespaceAndComments() {
	for {
		c := t.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			t.consume()
			continue
		}
		if c == '/' && t.peekAt(1) == '*' {
			t.consume()
			t.consume()
			for {
				c := t.consume()
				if c == eof {
					return // unterminated comment swallows the rest
				}
				if c == '*' && t.peek() == '/' {
					t.consume()
					break
				}
			}
			continue
		}
		return
	}
}

// consumeIdentLike produces an ident, a function token, or a url token.
func (t *Tokenizer) consumeIdentLike() Token {
	name := t.consumeName()
	if t.peek() != '(' {
		return Token{Type: TokenIdent, Value: name}
	}
	t.consume()
	if lowerEquals(name, "url") {
		return t.consumeURL()
	}
	return Token{Type: TokenFunction, Value: name}
}

// consumeURL lexes the body of url(...), which may be quoted or bare. A
// malformed body is skipped through the closing paren.
func (t *Tokenizer) consumeURL() Token {
	for isWhitespace(t.peek()) {
		t.consume()
	}
	if q := t.peek(); q == '"' || q == '\'' {
		t.consume()
		str := t.consumeString(q)
		for isWhitespace(t.peek()) {
			t.consume()
		}
		if t.peek() == ')' {
			t.consume()
			return Token{Type: TokenURL, Value: str.Value}
		}
		return t.consumeBadURL()
	}
	var out []rune
	for {
		c := t.peek()
		switch {
		case c == ')' || c == eof:
			t.consume()
			return Token{Type: TokenURL, Value: string(out)}
		case isWhitespace(c):
			for isWhitespace(t.peek()) {
				t.consume()
			}
			if t.peek() == ')' || t.peek() == eof {
				t.consume()
				return Token{Type: TokenURL, Value: string(out)}
			}
			return t.consumeBadURL()
		case c == '"' || c == '\'' || c == '(':
			return t.consumeBadURL()
		default:
			out = append(out, t.consume())
		}
	}
}

// consumeBadURL recovers from a malformed url() by skipping to its close.
func (t *Tokenizer) consumeBadURL() Token {
	for {
		c := t.consume()
		if c == ')' || c == eof {
			return Token{Type: TokenURL, Value: ""}
		}
	}
}

func (t *Tokenizer) consumeName() string {
	var out []rune
	for isName(t.peek()) {
		out = append(out, t.consume())
	}
	return string(out)
}

// consumeString lexes until the matching quote. A newline or EOF ends the
// string early rather than failing.
func (t *Tokenizer) consumeString(quote rune) Token {
	var out []rune
	for {
		c := t.peek()
		switch c {
		case quote:
			t.consume()
			return Token{Type: TokenString, Value: string(out)}
		case eof, '\n':
			return Token{Type: TokenString, Value: string(out)}
		case '\\':
			t.consume()
			if t.peek() != eof {
				out = append(out, t.consume())
			}
		default:
			out = append(out, t.consume())
		}
	}
}

// consumeNumeric lexes a number, percentage, or dimension token.
func (t *Tokenizer) consumeNumeric() Token {
	var out []rune
	if c := t.peek(); c == '+' || c == '-' {
		out = append(out, t.consume())
	}
	for isDigit(t.peek()) {
		out = append(out, t.consume())
	}
	if t.peek() == '.' && isDigit(t.peekAt(1)) {
		out = append(out, t.consume())
		for isDigit(t.peek()) {
			out = append(out, t.consume())
		}
	}
	n, _ := strconv.ParseFloat(string(out), 64)

	if t.peek() == '%' {
		t.consume()
		return Token{Type: TokenPercentage, Number: n, Value: string(out) + "%"}
	}
	if isNameStart(t.peek()) {
		unit := t.consumeName()
		return Token{Type: TokenDimension, Number: n, Unit: unit, Value: string(out) + unit}
	}
	return Token{Type: TokenNumber, Number: n, Value: string(out)}
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c > 0x7f
}

func isName(c rune) bool {
	return isNameStart(c) || isDigit(c) || c == '-'
}

func lowerEquals(s, target string) bool {
	if len(s) != len(target) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != target[i] {
			return false
		}
	}
	return true
}
