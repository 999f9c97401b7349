package expression

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Static parse errors.
var (
	errTrailingInput   = errors.New("unexpected trailing input")
	errUnexpectedEnd   = errors.New("unexpected end of expression")
	errEmptyExpression = errors.New("empty expression")
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenPath
	tokenNumber
	tokenString
	tokenBool
	tokenNull
	tokenOperator
	tokenLeftParen
	tokenRightParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	source string
	tokens []token
	cursor int
}

func newParser(source string) *parser {
	return &parser{source: source}
}

func (p *parser) pos() int {
	if p.cursor < len(p.tokens) {
		return p.tokens[p.cursor].pos
	}

	return len(p.source)
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokenEOF
}

func (p *parser) peek() token {
	if p.cursor >= len(p.tokens) {
		return token{kind: tokenEOF, pos: len(p.source)}
	}

	return p.tokens[p.cursor]
}

func (p *parser) next() token {
	tok := p.peek()
	p.cursor++

	return tok
}

// parseExpression parses the full grammar:
//
//	expression := and ("||" and)*
//	and        := comparison ("&&" comparison)*
//	comparison := unary (("==" | "!=" | "<" | "<=" | ">" | ">=") unary)?
//	unary      := "!" unary | "(" expression ")" | literal | path
func (p *parser) parseExpression() (node, error) {
	if p.tokens == nil {
		tokens, err := lex(p.source)
		if err != nil {
			return nil, err
		}

		p.tokens = tokens
	}

	if p.atEOF() {
		return nil, errEmptyExpression
	}

	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokenOperator && p.peek().text == "||" {
		p.next()

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &binaryNode{op: "||", left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokenOperator && p.peek().text == "&&" {
		p.next()

		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		left = &binaryNode{op: "&&", left: left, right: right}
	}

	return left, nil
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind == tokenOperator && comparisonOps[tok.text] {
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &binaryNode{op: tok.text, left: left, right: right}, nil
	}

	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()

	switch {
	case tok.kind == tokenOperator && tok.text == "!":
		p.next()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &unaryNode{op: "!", operand: operand}, nil

	case tok.kind == tokenLeftParen:
		p.next()

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if p.peek().kind != tokenRightParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.pos())
		}

		p.next()

		return inner, nil

	case tok.kind == tokenEOF:
		return nil, errUnexpectedEnd

	default:
		return p.parseOperand()
	}
}

func (p *parser) parseOperand() (node, error) {
	tok := p.next()

	switch tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok.text, err)
		}

		return &literalNode{value: value}, nil

	case tokenString:
		return &literalNode{value: tok.text}, nil

	case tokenBool:
		return &literalNode{value: tok.text == "true"}, nil

	case tokenNull:
		return &literalNode{value: nil}, nil

	case tokenPath:
		segments := strings.Split(strings.TrimPrefix(tok.text, "$"), ".")

		return &pathNode{raw: tok.text, root: segments[0], path: segments[1:]}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.text, tok.pos)
	}
}

func lex(source string) ([]token, error) {
	var tokens []token

	runes := []rune(source)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case r == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "(", pos: i})
			i++

		case r == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")", pos: i})
			i++

		case r == '$':
			start := i
			i++

			for i < len(runes) && (isPathRune(runes[i]) || runes[i] == '.') {
				i++
			}

			text := string(runes[start:i])
			if text == "$" || strings.HasSuffix(text, ".") {
				return nil, fmt.Errorf("malformed path %q at position %d", text, start)
			}

			tokens = append(tokens, token{kind: tokenPath, text: text, pos: start})

		case r == '\'' || r == '"':
			quote := r
			start := i
			i++

			var builder strings.Builder

			for i < len(runes) && runes[i] != quote {
				builder.WriteRune(runes[i])
				i++
			}

			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string at position %d", start)
			}

			i++

			tokens = append(tokens, token{kind: tokenString, text: builder.String(), pos: start})

		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++

			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}

			tokens = append(tokens, token{kind: tokenNumber, text: string(runes[start:i]), pos: start})

		case unicode.IsLetter(r):
			start := i

			for i < len(runes) && isPathRune(runes[i]) {
				i++
			}

			text := string(runes[start:i])

			switch text {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, text: text, pos: start})
			case "null":
				tokens = append(tokens, token{kind: tokenNull, text: text, pos: start})
			default:
				return nil, fmt.Errorf("unknown identifier %q at position %d (paths start with $)", text, start)
			}

		default:
			op, width, err := lexOperator(runes, i)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{kind: tokenOperator, text: op, pos: i})
			i += width
		}
	}

	return tokens, nil
}

func lexOperator(runes []rune, i int) (string, int, error) {
	two := ""
	if i+1 < len(runes) {
		two = string(runes[i : i+2])
	}

	switch two {
	case "==", "!=", "<=", ">=", "&&", "||":
		return two, 2, nil
	}

	switch runes[i] {
	case '<', '>', '!':
		return string(runes[i]), 1, nil
	}

	return "", 0, fmt.Errorf("unexpected character %q at position %d", string(runes[i]), i)
}

func isPathRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
