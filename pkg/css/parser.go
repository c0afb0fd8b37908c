package css

import (
	"strconv"
	"strings"
)

// Selector is the AST for one selector. Concrete types are Universal,
// Element, ID, Class, Attribute, PseudoClass, PseudoElement and Combinator.
type Selector interface {
	isSelector()
	String() string
}

type Universal struct{}

// Element matches by tag name (stored lowercase).
type Element struct {
	Name string
}

type ID struct {
	Name string
}

type Class struct {
	Name string
}

// Attribute matches on an attribute. With HasOp false it is a bare
// presence test ([href]); otherwise Op is one of = ~= |= ^= $= *=.
type Attribute struct {
	Name  string
	Op    string
	Value string
	HasOp bool
}

type PseudoClass struct {
	Name string
}

type PseudoElement struct {
	Name string
}

// CombinatorKind distinguishes the four selector combinators.
type CombinatorKind int

const (
	Descendant CombinatorKind = iota
	Child
	Adjacent
	Sibling
)

// Combinator joins two selectors; Left is the ancestor/preceding side.
type Combinator struct {
	Kind  CombinatorKind
	Left  Selector
	Right Selector
}

func (Universal) isSelector()     {}
func (Element) isSelector()       {}
func (ID) isSelector()            {}
func (Class) isSelector()         {}
func (Attribute) isSelector()     {}
func (PseudoClass) isSelector()   {}
func (PseudoElement) isSelector() {}
func (Combinator) isSelector()    {}

func (Universal) String() string       { return "*" }
func (s Element) String() string       { return s.Name }
func (s ID) String() string            { return "#" + s.Name }
func (s Class) String() string         { return "." + s.Name }
func (s PseudoClass) String() string   { return ":" + s.Name }
func (s PseudoElement) String() string { return "::" + s.Name }

func (s Attribute) String() string {
	if !s.HasOp {
		return "[" + s.Name + "]"
	}
	return "[" + s.Name + s.Op + strconv.Quote(s.Value) + "]"
}

func (s Combinator) String() string {
	sep := " "
	switch s.Kind {
	case Child:
		sep = " > "
	case Adjacent:
		sep = " + "
	case Sibling:
		sep = " ~ "
	}
	return s.Left.String() + sep + s.Right.String()
}

// Declaration is a single property: value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule is one selector with its declaration block. Selector lists are
// split during parsing, so a Rule always carries exactly one selector.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
}

// AtRule is an @-rule. Block-less rules (@import, @charset) have no Items;
// grouping rules (@media) carry their nested rules.
type AtRule struct {
	Name    string
	Prelude string
	Items   []Item
}

// Item is a top-level stylesheet entry: a Rule or an AtRule.
type Item interface {
	isItem()
}

func (Rule) isItem()   {}
func (AtRule) isItem() {}

// Stylesheet is the parse result.
type Stylesheet struct {
	Items []Item
}

// Rules returns the top-level style rules, skipping at-rules.
func (s *Stylesheet) Rules() []Rule {
	var out []Rule
	for _, item := range s.Items {
		if r, ok := item.(Rule); ok {
			out = append(out, r)
		}
	}
	return out
}

// Flatten returns every style rule including those nested in grouping
// at-rules, in document order.
func (s *Stylesheet) Flatten() []Rule {
	var out []Rule
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, item := range items {
			switch v := item.(type) {
			case Rule:
				out = append(out, v)
			case AtRule:
				walk(v.Items)
			}
		}
	}
	walk(s.Items)
	return out
}

// ParseStylesheet parses CSS source. Malformed rules and declarations are
// skipped; parsing never fails.
func ParseStylesheet(input string) *Stylesheet {
	p := &parser{tokens: NewTokenizer(input).Tokenize()}
	return p.parseStylesheet()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.peek()
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseStylesheet() *Stylesheet {
	sheet := &Stylesheet{}
	for {
		switch p.peek().Type {
		case TokenEOF:
			return sheet
		case TokenAtKeyword:
			if at, ok := p.parseAtRule(); ok {
				sheet.Items = append(sheet.Items, at)
			}
		case TokenCloseBrace, TokenSemicolon:
			// Stray closers between rules.
			p.next()
		default:
			for _, r := range p.parseRuleSet() {
				sheet.Items = append(sheet.Items, r)
			}
		}
	}
}

func (p *parser) parseAtRule() (AtRule, bool) {
	at := AtRule{Name: p.next().Value}
	var prelude []string
	for {
		switch p.peek().Type {
		case TokenSemicolon, TokenEOF:
			p.next()
			at.Prelude = strings.Join(prelude, " ")
			return at, true
		case TokenOpenBrace:
			p.next()
			at.Prelude = strings.Join(prelude, " ")
			for p.peek().Type != TokenCloseBrace && p.peek().Type != TokenEOF {
				if p.peek().Type == TokenAtKeyword {
					if nested, ok := p.parseAtRule(); ok {
						at.Items = append(at.Items, nested)
					}
					continue
				}
				for _, r := range p.parseRuleSet() {
					at.Items = append(at.Items, r)
				}
			}
			p.next()
			return at, true
		default:
			prelude = append(prelude, tokenText(p.next()))
		}
	}
}

// parseRuleSet parses "selectors { declarations }", splitting a selector
// list at commas into one Rule per selector.
func (p *parser) parseRuleSet() []Rule {
	var selectors []Selector
	for {
		sel, ok := p.parseSelector()
		if !ok {
			p.skipRule()
			return nil
		}
		selectors = append(selectors, sel)
		if p.peek().Type == TokenComma {
			p.next()
			continue
		}
		break
	}
	if p.peek().Type != TokenOpenBrace {
		p.skipRule()
		return nil
	}
	p.next()
	decls := p.parseDeclarations()
	rules := make([]Rule, 0, len(selectors))
	for _, s := range selectors {
		rules = append(rules, Rule{Selector: s, Declarations: decls})
	}
	return rules
}

// skipRule discards tokens through the end of the current rule, balancing
// braces so a bad rule cannot desynchronize the rest of the sheet.
func (p *parser) skipRule() {
	depth := 0
	for {
		switch p.next().Type {
		case TokenEOF:
			return
		case TokenOpenBrace:
			depth++
		case TokenCloseBrace:
			depth--
			if depth <= 0 {
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
	}
}

// parseSelector parses one selector from the list, building left-
// associated combinators. Adjacent simple selectors with no explicit
// combinator token form a descendant combinator.
func (p *parser) parseSelector() (Selector, bool) {
	left, ok := p.parseSimpleSelector()
	if !ok {
		return nil, false
	}
	for {
		var kind CombinatorKind
		switch p.peek().Type {
		case TokenGreater:
			p.next()
			kind = Child
		case TokenPlus:
			p.next()
			kind = Adjacent
		case TokenTilde:
			p.next()
			kind = Sibling
		default:
			if !p.startsSimpleSelector() {
				return left, true
			}
			kind = Descendant
		}
		right, ok := p.parseSimpleSelector()
		if !ok {
			return nil, false
		}
		left = Combinator{Kind: kind, Left: left, Right: right}
	}
}

func (p *parser) startsSimpleSelector() bool {
	switch p.peek().Type {
	case TokenIdent, TokenAsterisk, TokenHash, TokenDot, TokenColon,
		TokenDoubleColon, TokenOpenBracket:
		return true
	}
	return false
}

func (p *parser) parseSimpleSelector() (Selector, bool) {
	switch tok := p.next(); tok.Type {
	case TokenAsterisk:
		return Universal{}, true
	case TokenIdent:
		return Element{Name: strings.ToLower(tok.Value)}, true
	case TokenHash:
		return ID{Name: tok.Value}, true
	case TokenDot:
		if p.peek().Type != TokenIdent {
			return nil, false
		}
		return Class{Name: p.next().Value}, true
	case TokenColon:
		return p.parsePseudo(false)
	case TokenDoubleColon:
		return p.parsePseudo(true)
	case TokenOpenBracket:
		return p.parseAttribute()
	}
	return nil, false
}

func (p *parser) parsePseudo(element bool) (Selector, bool) {
	var name string
	switch p.peek().Type {
	case TokenIdent:
		name = p.next().Value
	case TokenFunction:
		// Functional pseudo like :nth-child(2n); the argument is
		// discarded since functional pseudos never match.
		name = p.next().Value
		depth := 1
		for depth > 0 {
			switch p.next().Type {
			case TokenOpenParen, TokenFunction:
				depth++
			case TokenCloseParen:
				depth--
			case TokenEOF:
				depth = 0
			}
		}
	default:
		return nil, false
	}
	if element {
		return PseudoElement{Name: name}, true
	}
	return PseudoClass{Name: name}, true
}

func (p *parser) parseAttribute() (Selector, bool) {
	if p.peek().Type != TokenIdent {
		return nil, false
	}
	attr := Attribute{Name: strings.ToLower(p.next().Value)}
	switch p.peek().Type {
	case TokenCloseBracket:
		p.next()
		return attr, true
	case TokenEquals, TokenIncludes, TokenDashMatch,
		TokenPrefixMatch, TokenSuffixMatch, TokenSubstringMatch:
		attr.Op = p.next().Value
		attr.HasOp = true
	default:
		return nil, false
	}
	switch p.peek().Type {
	case TokenIdent, TokenString:
		attr.Value = p.next().Value
	default:
		return nil, false
	}
	if p.peek().Type != TokenCloseBracket {
		return nil, false
	}
	p.next()
	return attr, true
}

// parseDeclarations parses the body of a declaration block through its
// closing brace. Malformed declarations are skipped to the next semicolon.
func (p *parser) parseDeclarations() []Declaration {
	var decls []Declaration
	for {
		switch p.peek().Type {
		case TokenCloseBrace:
			p.next()
			return decls
		case TokenEOF:
			return decls
		case TokenSemicolon:
			p.next()
		case TokenIdent:
			if d, ok := p.parseDeclaration(); ok {
				decls = append(decls, d)
			}
		default:
			p.skipDeclaration()
		}
	}
}

func (p *parser) parseDeclaration() (Declaration, bool) {
	d := Declaration{Property: strings.ToLower(p.next().Value)}
	if p.peek().Type != TokenColon {
		p.skipDeclaration()
		return d, false
	}
	p.next()

	var parts []string
	depth := 0
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenSemicolon, TokenEOF:
			d.Value = joinValue(parts)
			return d, d.Value != ""
		case TokenCloseBrace:
			if depth == 0 {
				d.Value = joinValue(parts)
				return d, d.Value != ""
			}
		case TokenBang:
			p.next()
			if next := p.peek(); next.Type == TokenIdent && lowerEquals(next.Value, "important") {
				p.next()
				d.Important = true
				continue
			}
			parts = append(parts, "!")
			continue
		case TokenOpenParen, TokenFunction:
			depth++
		case TokenCloseParen:
			if depth > 0 {
				depth--
			}
		}
		parts = append(parts, tokenText(p.next()))
	}
}

// skipDeclaration discards tokens through the next semicolon, stopping
// before the block's closing brace.
func (p *parser) skipDeclaration() {
	depth := 0
	for {
		switch p.peek().Type {
		case TokenEOF:
			return
		case TokenCloseBrace:
			if depth == 0 {
				return
			}
			p.next()
			depth--
		case TokenOpenBrace:
			p.next()
			depth++
		case TokenSemicolon:
			p.next()
			if depth == 0 {
				return
			}
		default:
			p.next()
		}
	}
}

// tokenText reconstructs a token's source text for value and prelude
// strings.
func tokenText(t Token) string {
	switch t.Type {
	case TokenString:
		return strconv.Quote(t.Value)
	case TokenHash:
		return "#" + t.Value
	case TokenAtKeyword:
		return "@" + t.Value
	case TokenURL:
		return "url(" + t.Value + ")"
	case TokenFunction:
		return t.Value + "("
	default:
		return t.Value
	}
}

// joinValue reassembles value tokens with spaces, keeping function calls
// and comma lists readable.
func joinValue(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 && part != ")" && part != "," && !strings.HasSuffix(parts[i-1], "(") {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}
