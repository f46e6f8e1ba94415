package parser

import "fmt"

// TokenType classifies a token of the catalog definition language
type TokenType int

const (
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF

	TOKEN_IDENTIFIER // [A-Za-z0-9_]+
	TOKEN_STRING     // "...", no escapes, single line

	TOKEN_UNIT
	TOKEN_ATTRIBUTE
	TOKEN_ASSET

	TOKEN_COLON
	TOKEN_LBRACE
	TOKEN_RBRACE
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_COMMA
)

var tokenNames = map[TokenType]string{
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_EOF:        "EOF",
	TOKEN_IDENTIFIER: "IDENTIFIER",
	TOKEN_STRING:     "STRING",
	TOKEN_UNIT:       "unit",
	TOKEN_ATTRIBUTE:  "attribute",
	TOKEN_ASSET:      "asset",
	TOKEN_COLON:      ":",
	TOKEN_LBRACE:     "{",
	TOKEN_RBRACE:     "}",
	TOKEN_LBRACKET:   "[",
	TOKEN_RBRACKET:   "]",
	TOKEN_COMMA:      ",",
}

var delimiters = map[byte]TokenType{
	':': TOKEN_COLON,
	'{': TOKEN_LBRACE,
	'}': TOKEN_RBRACE,
	'[': TOKEN_LBRACKET,
	']': TOKEN_RBRACKET,
	',': TOKEN_COMMA,
}

var keywords = map[string]TokenType{
	"unit":      TOKEN_UNIT,
	"attribute": TOKEN_ATTRIBUTE,
	"asset":     TOKEN_ASSET,
}

// Token is one lexeme with its 1-based source position
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// String formats the token for error messages and debugging
func (t *Token) String() string {
	name, ok := tokenNames[t.Type]
	if !ok {
		name = fmt.Sprintf("UNKNOWN(%d)", t.Type)
	}
	return fmt.Sprintf("%s(%s) at %d:%d", name, t.Value, t.Line, t.Column)
}

// Lexer splits definition source into tokens. Input is read byte by byte;
// identifiers are ASCII, quoted names may hold any other bytes.
type Lexer struct {
	input  string
	pos    int  // index of ch
	ch     byte // 0 at end of input
	line   int
	column int
}

// NewLexer creates a Lexer positioned on the first byte of input
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, pos: -1, line: 1}
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.pos++
	l.column++
	if l.pos < len(l.input) {
		l.ch = l.input[l.pos]
	} else {
		l.ch = 0
	}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

// skipTrivia skips whitespace and // line comments
func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.advance()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token, or an error for an illegal character or an
// unterminated string. At the end of input it keeps returning EOF.
func (l *Lexer) NextToken() (*Token, error) {
	l.skipTrivia()
	tok := &Token{Line: l.line, Column: l.column}

	if l.ch == 0 {
		tok.Type = TOKEN_EOF
		return tok, nil
	}

	if typ, ok := delimiters[l.ch]; ok {
		tok.Type, tok.Value = typ, string(l.ch)
		l.advance()
		return tok, nil
	}

	if l.ch == '"' {
		value, ok := l.readQuoted()
		if !ok {
			return nil, fmt.Errorf("unterminated string at %d:%d", tok.Line, tok.Column)
		}
		tok.Type, tok.Value = TOKEN_STRING, value
		return tok, nil
	}

	if isNameByte(l.ch) {
		start := l.pos
		for isNameByte(l.ch) {
			l.advance()
		}
		tok.Value = l.input[start:l.pos]
		tok.Type = TOKEN_IDENTIFIER
		if kw, ok := keywords[tok.Value]; ok {
			tok.Type = kw
		}
		return tok, nil
	}

	return nil, fmt.Errorf("illegal character '%c' at %d:%d", l.ch, tok.Line, tok.Column)
}

// readQuoted consumes a quoted name including both quotes.
// It fails when a newline or the end of input comes first.
func (l *Lexer) readQuoted() (string, bool) {
	l.advance() // opening quote
	start := l.pos
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			return "", false
		}
		l.advance()
	}
	value := l.input[start:l.pos]
	l.advance() // closing quote
	return value, true
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isNameByte(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
