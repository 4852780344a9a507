// Package condition implements the where-clause language used by
// config-defined counter modules, e.g.
//
//	ability in (259491, 186270) AND effective >= 1000 AND NOT target_friendly
package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Expr is the common interface for all AST nodes.
type Expr interface {
	exprNode()
}

// BinaryExpr represents AND / OR.
type BinaryExpr struct {
	Op    string // "AND" | "OR"
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// NotExpr represents NOT <expr>.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) exprNode() {}

// ComparisonExpr represents <operand> <operator> <operand>.
type ComparisonExpr struct {
	Left  Operand
	Op    Operator
	Right Operand
}

func (*ComparisonExpr) exprNode() {}

// InExpr represents <operand> in (<literal>, ...).
type InExpr struct {
	Left Operand
	Set  []interface{}
}

func (*InExpr) exprNode() {}

// TruthExpr is a bare operand used as a predicate, e.g. "source_friendly".
type TruthExpr struct {
	Operand Operand
}

func (*TruthExpr) exprNode() {}

// Operand is either a literal value or a field reference.
type Operand interface {
	operandNode()
}

// LiteralOperand holds a pre-parsed constant.
type LiteralOperand struct {
	Value interface{} // float64 | string | bool
}

func (*LiteralOperand) operandNode() {}

// FieldOperand names an event field.
type FieldOperand struct {
	Name string
}

func (*FieldOperand) operandNode() {}

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14 | -7
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

type lexer struct {
	src    string
	i      int
	tokens []token
}

func (l *lexer) emit(kind tokenKind, val string, pos int) {
	l.tokens = append(l.tokens, token{kind: kind, val: val, pos: pos})
}

func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	for l.i < len(src) {
		ch := src[l.i]
		start := l.i
		switch {
		case unicode.IsSpace(rune(ch)):
			l.i++
		case ch == '(':
			l.emit(tokLParen, "(", start)
			l.i++
		case ch == ')':
			l.emit(tokRParen, ")", start)
			l.i++
		case ch == ',':
			l.emit(tokComma, ",", start)
			l.i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if l.i+1 < len(src) && src[l.i+1] == '=' {
				l.emit(tokOp, src[l.i:l.i+2], start)
				l.i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("unexpected %q at position %d", ch, start)
			}
			l.emit(tokOp, string(ch), start)
			l.i++
		case ch == '"' || ch == '\'':
			s, err := l.quoted(ch)
			if err != nil {
				return nil, err
			}
			l.emit(tokString, s, start)
		case unicode.IsDigit(rune(ch)) || (ch == '-' && l.i+1 < len(src) && unicode.IsDigit(rune(src[l.i+1]))):
			l.i++
			for l.i < len(src) && (unicode.IsDigit(rune(src[l.i])) || src[l.i] == '.') {
				l.i++
			}
			l.emit(tokNumber, src[start:l.i], start)
		case unicode.IsLetter(rune(ch)) || ch == '_':
			for l.i < len(src) && (unicode.IsLetter(rune(src[l.i])) || unicode.IsDigit(rune(src[l.i])) || src[l.i] == '_') {
				l.i++
			}
			word := src[start:l.i]
			if w := strings.ToLower(word); w == "true" || w == "false" {
				l.emit(tokBool, w, start)
			} else {
				l.emit(tokWord, word, start)
			}
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, start)
		}
	}
	l.emit(tokEOF, "", len(src))
	return l.tokens, nil
}

// quoted consumes a string literal opened by quote at l.i.
func (l *lexer) quoted(quote byte) (string, error) {
	start := l.i
	var b strings.Builder
	for j := l.i + 1; j < len(l.src); j++ {
		c := l.src[j]
		switch {
		case c == '\\' && j+1 < len(l.src):
			j++
			b.WriteByte(l.src[j])
		case c == quote:
			l.i = j + 1
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated string starting at position %d", start)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

func (p *parser) expect(kind tokenKind, val string) error {
	t := p.peek()
	if t.kind != kind {
		return fmt.Errorf("expected %q at position %d, got %q", val, t.pos, t.val)
	}
	p.consume()
	return nil
}

// Parse parses a where clause into an AST.
func Parse(expr string) (Expr, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("empty expression")
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", t.val, t.pos)
	}
	return node, nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// and_expr = not_expr ( "AND" not_expr )*
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.consume()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

// not_expr = "NOT" not_expr | "(" or_expr ")" | predicate
func (p *parser) parseNot() (Expr, error) {
	if p.keyword("NOT") {
		p.consume()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parsePredicate()
}

// predicate = operand ( operator operand | "in" "(" literal ( "," literal )* ")" )?
func (p *parser) parsePredicate() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	switch {
	case t.kind == tokOp:
		p.consume()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &ComparisonExpr{Left: left, Op: Operator(t.val), Right: right}, nil
	case p.keyword("in"):
		p.consume()
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		return &InExpr{Left: left, Set: set}, nil
	default:
		return &TruthExpr{Operand: left}, nil
	}
}

func (p *parser) parseSet() ([]interface{}, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var set []interface{}
	for {
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		lit, ok := op.(*LiteralOperand)
		if !ok {
			return nil, fmt.Errorf("in: set members must be literals, got field %q", op.(*FieldOperand).Name)
		}
		set = append(set, lit.Value)
		if p.peek().kind == tokComma {
			p.consume()
			continue
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return set, nil
	}
}

// operand = field | literal
func (p *parser) parseOperand() (Operand, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.consume()
		return &LiteralOperand{Value: t.val}, nil
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", t.val, t.pos)
		}
		return &LiteralOperand{Value: f}, nil
	case tokBool:
		p.consume()
		return &LiteralOperand{Value: t.val == "true"}, nil
	case tokWord:
		switch strings.ToUpper(t.val) {
		case "AND", "OR", "NOT", "IN":
			return nil, fmt.Errorf("unexpected keyword %q at position %d", t.val, t.pos)
		}
		p.consume()
		return &FieldOperand{Name: t.val}, nil
	default:
		if t.kind == tokEOF {
			return nil, fmt.Errorf("unexpected end of expression")
		}
		return nil, fmt.Errorf("expected operand at position %d, got %q", t.pos, t.val)
	}
}

// Fields walks the AST and returns every field name referenced, in first-use order.
func Fields(expr Expr) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(op Operand) {
		if f, ok := op.(*FieldOperand); ok && !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *NotExpr:
			walk(n.Expr)
		case *ComparisonExpr:
			add(n.Left)
			add(n.Right)
		case *InExpr:
			add(n.Left)
		case *TruthExpr:
			add(n.Operand)
		}
	}
	walk(expr)
	return out
}
