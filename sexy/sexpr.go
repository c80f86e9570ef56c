package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeFloat
	NodeList
	NodeMap
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeFloat:
		return "float"
	case NodeList:
		return "list"
	case NodeMap:
		return "map"
	default:
		return fmt.Sprintf("node type %d", int(t))
	}
}

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger, NodeFloat
	Text string

	Items []*Node  // NodeList, NodeMap
	Keys  []string // NodeMap - parallel to Items

	// NodeList metadata, written ^{key: value} anywhere inside the list
	MetaKeys  []string
	MetaItems []*Node

	// Line is the 1-based source line the datum starts on, 0 if built in code
	Line int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger, NodeFloat:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeList:
		var parts []string
		if len(n.MetaKeys) > 0 {
			var metaParts []string
			for i, key := range n.MetaKeys {
				metaParts = append(metaParts, fmt.Sprintf("%s: %s", key, n.MetaItems[i].String()))
			}
			parts = append(parts, fmt.Sprintf("^{%s}", strings.Join(metaParts, ", ")))
		}
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	case NodeMap:
		var parts []string
		for i, key := range n.Keys {
			parts = append(parts, fmt.Sprintf("%s: %s", key, n.Items[i].String()))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewFloat(text string) *Node {
	return &Node{Type: NodeFloat, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

func NewListWithMeta(items []*Node, metaKeys []string, metaItems []*Node) *Node {
	return &Node{Type: NodeList, Items: items, MetaKeys: metaKeys, MetaItems: metaItems}
}

func NewMap(keys []string, items []*Node) *Node {
	return &Node{Type: NodeMap, Keys: keys, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList && n.Type != NodeMap
}

// Head returns the symbol a list starts with, or "" if it does not start
// with one.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Args returns the items of a list after its head.
func (n *Node) Args() []*Node {
	if n.Type != NodeList || len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

// Meta returns the metadata value stored under key, or nil.
func (n *Node) Meta(key string) *Node {
	for i, k := range n.MetaKeys {
		if k == key {
			return n.MetaItems[i]
		}
	}
	return nil
}

// Equal reports whether n and o are structurally identical, ignoring
// source lines.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type || n.Text != o.Text || len(n.Items) != len(o.Items) ||
		len(n.Keys) != len(o.Keys) || len(n.MetaKeys) != len(o.MetaKeys) {
		return false
	}
	for i := range n.Items {
		if !n.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	for i := range n.Keys {
		if n.Keys[i] != o.Keys[i] {
			return false
		}
	}
	for i := range n.MetaKeys {
		if n.MetaKeys[i] != o.MetaKeys[i] || !n.MetaItems[i].Equal(o.MetaItems[i]) {
			return false
		}
	}
	return true
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	result, err := p.parseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, p.lexer.errors[0]
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, p.errorf("expected EOF but got %s", p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.currentToken.Line, fmt.Sprintf(format, args...))
}

func (p *parser) parseDatum() (*Node, error) {
	line := p.currentToken.Line
	var n *Node
	var err error
	switch p.currentToken.Type {
	case tokenSymbol:
		n = NewSymbol(p.currentToken.Value)
		p.nextToken()
	case tokenString:
		n = NewString(p.currentToken.Value)
		p.nextToken()
	case tokenInteger:
		// Callers decide the width, so the text is kept as written.
		n = NewInteger(p.currentToken.Value)
		p.nextToken()
	case tokenFloat:
		n = NewFloat(p.currentToken.Value)
		p.nextToken()
	case tokenLParen:
		n, err = p.parseList()
	case tokenLBrace:
		p.nextToken()
		n, err = p.parseMapFromOpenBrace()
	default:
		return nil, p.errorf("unexpected token: %s", p.currentToken.Type)
	}
	if err != nil {
		return nil, err
	}
	n.Line = line
	return n, nil
}

func (p *parser) parseList() (*Node, error) {
	var items []*Node
	var metaKeys []string
	var metaItems []*Node
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type == tokenCaret {
			metaNode, err := p.parseMeta()
			if err != nil {
				return nil, err
			}

			// Later values win
			for i, key := range metaNode.Keys {
				found := false
				for j, existingKey := range metaKeys {
					if existingKey == key {
						metaItems[j] = metaNode.Items[i]
						found = true
						break
					}
				}
				if !found {
					metaKeys = append(metaKeys, key)
					metaItems = append(metaItems, metaNode.Items[i])
				}
			}
		} else {
			item, err := p.parseDatum()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	if p.currentToken.Type != tokenRParen {
		return nil, p.errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	if len(metaKeys) > 0 {
		return NewListWithMeta(items, metaKeys, metaItems), nil
	}
	return NewList(items...), nil
}

func (p *parser) parseMeta() (*Node, error) {
	p.nextToken() // consume '^'

	if p.currentToken.Type != tokenLBrace {
		return nil, p.errorf("expected '{' after '^' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume '{'
	return p.parseMapFromOpenBrace()
}

func (p *parser) parseMapFromOpenBrace() (*Node, error) {
	var keys []string
	var items []*Node

	for p.currentToken.Type != tokenRBrace && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenSymbol {
			return nil, p.errorf("expected symbol for map key but got %s", p.currentToken.Type)
		}

		keys = append(keys, p.currentToken.Value)
		p.nextToken()

		if p.currentToken.Type != tokenColon {
			return nil, p.errorf("expected ':' after map key but got %s", p.currentToken.Type)
		}
		p.nextToken()

		value, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, value)

		if p.currentToken.Type == tokenComma {
			p.nextToken()
		} else if p.currentToken.Type != tokenRBrace {
			return nil, p.errorf("expected ',' or '}' in map but got %s", p.currentToken.Type)
		}
	}

	if p.currentToken.Type != tokenRBrace {
		return nil, p.errorf("expected '}' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume '}'

	return NewMap(keys, items), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenFloat
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenColon:
		return "':'"
	case tokenComma:
		return "','"
	case tokenCaret:
		return "'^'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
}

type lexer struct {
	input    string
	position int
	current  rune
	line     int
	errors   []error
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return rune(l.input[l.position])
}

func (l *lexer) errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Errorf("line %d: %s", l.line, fmt.Sprintf(format, args...)))
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				result.WriteByte('"')
			case '\\':
				result.WriteByte('\\')
			case 'n':
				result.WriteByte('\n')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			result.WriteByte(byte(l.current))
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

// readNumber reads an optionally signed integer or decimal float.
func (l *lexer) readNumber() (string, tokenType) {
	start := l.position - 1
	typ := tokenInteger
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		l.readChar()
	}
	if l.current == '.' && unicode.IsDigit(l.peekChar()) {
		typ = tokenFloat
		l.readChar()
		for unicode.IsDigit(l.current) {
			l.readChar()
		}
	}
	if l.current == 'e' || l.current == 'E' {
		typ = tokenFloat
		l.readChar()
		if l.current == '+' || l.current == '-' {
			l.readChar()
		}
		for unicode.IsDigit(l.current) {
			l.readChar()
		}
	}
	return l.input[start : l.position-1], typ
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		line := l.line

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: line}
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return token{Type: tokenLParen, Value: "(", Line: line}
		case ')':
			l.readChar()
			return token{Type: tokenRParen, Value: ")", Line: line}
		case '{':
			l.readChar()
			return token{Type: tokenLBrace, Value: "{", Line: line}
		case '}':
			l.readChar()
			return token{Type: tokenRBrace, Value: "}", Line: line}
		case ':':
			l.readChar()
			return token{Type: tokenColon, Value: ":", Line: line}
		case ',':
			l.readChar()
			return token{Type: tokenComma, Value: ",", Line: line}
		case '^':
			l.readChar()
			return token{Type: tokenCaret, Value: "^", Line: line}
		case '"':
			str, err := l.readString()
			if err != nil {
				l.errorf("%v", err)
				return token{Type: tokenEOF, Line: line}
			}
			return token{Type: tokenString, Value: str, Line: line}
		default:
			if unicode.IsLetter(l.current) || l.current == '_' {
				return token{Type: tokenSymbol, Value: l.readSymbol(), Line: line}
			} else if unicode.IsDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !unicode.IsDigit(l.peekChar()) {
					// Single + or - is a symbol
					start := l.position - 1
					l.readChar()
					for isSymbolChar(l.current) {
						l.readChar()
					}
					return token{Type: tokenSymbol, Value: l.input[start : l.position-1], Line: line}
				}
				text, typ := l.readNumber()
				return token{Type: typ, Value: text, Line: line}
			} else {
				l.errorf("unexpected character '%c'", l.current)
				return token{Type: tokenEOF, Line: line}
			}
		}
	}
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.'
}
