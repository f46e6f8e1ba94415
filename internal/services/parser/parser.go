package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDefinition is returned for catalog definitions that fail to parse or validate
var ErrInvalidDefinition = errors.New("invalid catalog definition")

// Parser is a recursive descent parser over a one-token lookahead.
// It collects every error instead of stopping at the first one.
type Parser struct {
	lexer *Lexer
	tok   *Token // token being parsed
	next  *Token // lookahead
	errs  []string
}

// NewParser creates a Parser positioned on the first token of lexer
func NewParser(lexer *Lexer) *Parser {
	p := &Parser{lexer: lexer}
	p.advance()
	p.advance()
	return p
}

// Parse parses and validates a definition source
func Parse(input string) (*DefinitionAST, error) {
	def, err := NewParser(NewLexer(input)).Parse()
	if err != nil {
		return nil, err
	}
	if err := NewValidator(def).Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// advance shifts the lookahead into tok. A lexer error is recorded and
// ends the token stream.
func (p *Parser) advance() {
	p.tok = p.next
	next, err := p.lexer.NextToken()
	if err != nil {
		p.errs = append(p.errs, err.Error())
		next = &Token{Type: TOKEN_EOF}
	}
	p.next = next
}

func (p *Parser) is(t TokenType) bool {
	return p.tok != nil && p.tok.Type == t
}

func (p *Parser) nextIs(t TokenType) bool {
	return p.next != nil && p.next.Type == t
}

func (p *Parser) failf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf(format, args...))
}

func (p *Parser) unexpectedNext(expected string) {
	p.failf("expected next token to be %s, got %s instead at %d:%d",
		expected, tokenNames[p.next.Type], p.next.Line, p.next.Column)
}

// expect advances onto the lookahead when it has type t
func (p *Parser) expect(t TokenType) bool {
	if !p.nextIs(t) {
		p.unexpectedNext(tokenNames[t])
		return false
	}
	p.advance()
	return true
}

// expectName advances onto an identifier or quoted name and returns it
func (p *Parser) expectName(what string) (string, bool) {
	if !p.nextIs(TOKEN_IDENTIFIER) && !p.nextIs(TOKEN_STRING) {
		p.unexpectedNext(what)
		return "", false
	}
	p.advance()
	return p.tok.Value, true
}

// Parse parses the whole input. Declarations may appear in any order.
func (p *Parser) Parse() (*DefinitionAST, error) {
	def := &DefinitionAST{
		Units:      []string{},
		Attributes: []*AttributeAST{},
		Assets:     []*AssetAST{},
	}

	for !p.is(TOKEN_EOF) {
		ok := false
		switch p.tok.Type {
		case TOKEN_UNIT:
			var units []string
			if units, ok = p.parseUnits(); ok {
				def.Units = append(def.Units, units...)
			}
		case TOKEN_ATTRIBUTE:
			var attr *AttributeAST
			if attr, ok = p.parseAttribute(); ok {
				def.Attributes = append(def.Attributes, attr)
			}
		case TOKEN_ASSET:
			var asset *AssetAST
			if asset, ok = p.parseAsset(); ok {
				def.Assets = append(def.Assets, asset)
			}
		default:
			p.failf("unexpected token %s at %d:%d, expected 'unit', 'attribute' or 'asset'",
				tokenNames[p.tok.Type], p.tok.Line, p.tok.Column)
		}
		if !ok {
			p.advance() // resynchronize on the next token
		}
	}

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("%w: parse errors:\n%s", ErrInvalidDefinition, strings.Join(p.errs, "\n"))
	}
	return def, nil
}

// parseUnits parses `unit kg, m, "m/s"`
func (p *Parser) parseUnits() ([]string, bool) {
	var units []string
	for {
		label, ok := p.expectName("unit label")
		if !ok {
			return nil, false
		}
		units = append(units, label)
		if !p.nextIs(TOKEN_COMMA) {
			break
		}
		p.advance()
	}
	p.advance()
	return units, true
}

// parseAttribute parses `attribute name: type` and `attribute name: type[]`
func (p *Parser) parseAttribute() (*AttributeAST, bool) {
	attr := &AttributeAST{Line: p.tok.Line}

	var ok bool
	if attr.Name, ok = p.expectName("attribute name"); !ok {
		return nil, false
	}
	if !p.expect(TOKEN_COLON) {
		return nil, false
	}
	if attr.Type, ok = p.expectName("data type"); !ok {
		return nil, false
	}
	if p.nextIs(TOKEN_LBRACKET) {
		p.advance()
		if !p.expect(TOKEN_RBRACKET) {
			return nil, false
		}
		attr.Type += "[]"
	}

	p.advance()
	return attr, true
}

// parseAsset parses `asset Name { member member, member }`.
// Members may be separated by whitespace or commas.
func (p *Parser) parseAsset() (*AssetAST, bool) {
	asset := &AssetAST{Attributes: []string{}, Line: p.tok.Line}

	var ok bool
	if asset.Name, ok = p.expectName("asset name"); !ok {
		return nil, false
	}
	if !p.expect(TOKEN_LBRACE) {
		return nil, false
	}

	for p.advance(); !p.is(TOKEN_RBRACE) && !p.is(TOKEN_EOF); p.advance() {
		switch p.tok.Type {
		case TOKEN_IDENTIFIER, TOKEN_STRING:
			asset.Attributes = append(asset.Attributes, p.tok.Value)
		case TOKEN_COMMA:
		default:
			p.failf("unexpected token %s in asset %s at %d:%d",
				tokenNames[p.tok.Type], asset.Name, p.tok.Line, p.tok.Column)
		}
	}

	if !p.is(TOKEN_RBRACE) {
		p.failf("expected '}' at end of asset %s, got %s at %d:%d",
			asset.Name, tokenNames[p.tok.Type], p.tok.Line, p.tok.Column)
		return nil, false
	}
	p.advance()
	return asset, true
}
