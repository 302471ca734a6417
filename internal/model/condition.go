package model

import (
	"fmt"
	"strings"
	"unicode"
)

// Condition is a parsed preprocessor-style expression over defined symbols:
//
//	expr := sub {("and" | "or") sub}
//	sub  := symbol | "(" expr ")" | "not" sub
//
// Binary operators have equal precedence and associate left to right.
type Condition struct {
	root condNode
}

type condNode interface {
	eval(defines map[string]bool) bool
}

type (
	condSymbol string
	condNot    struct{ x condNode }
	condBinary struct {
		and  bool
		l, r condNode
	}
)

func (s condSymbol) eval(d map[string]bool) bool { return d[string(s)] }
func (n condNot) eval(d map[string]bool) bool    { return !n.x.eval(d) }
func (b condBinary) eval(d map[string]bool) bool {
	if b.and {
		return b.l.eval(d) && b.r.eval(d)
	}
	return b.l.eval(d) || b.r.eval(d)
}

// Eval evaluates the condition. A zero Condition is true.
func (c Condition) Eval(defines map[string]bool) bool {
	if c.root == nil {
		return true
	}
	return c.root.eval(defines)
}

// ParseCondition parses a condition expression. Blank input yields the
// always-true condition.
func ParseCondition(s string) (Condition, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Condition{}, err
	}
	if len(toks) == 0 {
		return Condition{}, nil
	}
	p := &condParser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", s, err)
	}
	if p.pos != len(p.toks) {
		return Condition{}, fmt.Errorf("condition %q: unexpected %q", s, p.toks[p.pos])
	}
	return Condition{root: root}, nil
}

// ParseDefines splits a semicolon-separated define list into a set.
func ParseDefines(s string) map[string]bool {
	out := make(map[string]bool)
	for _, d := range strings.Split(s, ";") {
		if d = strings.TrimSpace(d); d != "" {
			out[d] = true
		}
	}
	return out
}

func tokenize(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case isSymbolChar(c):
			start := i
			for i < len(s) && isSymbolChar(rune(s[i])) {
				i++
			}
			toks = append(toks, s[start:i])
		default:
			return nil, fmt.Errorf("condition %q: unexpected character %q", s, c)
		}
	}
	return toks, nil
}

func isSymbolChar(c rune) bool {
	return c == '_' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

type condParser struct {
	toks []string
	pos  int
}

func (p *condParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *condParser) expr() (condNode, error) {
	left, err := p.sub()
	if err != nil {
		return nil, err
	}
	for {
		op := strings.ToLower(p.peek())
		if op != "and" && op != "or" {
			return left, nil
		}
		p.pos++
		right, err := p.sub()
		if err != nil {
			return nil, err
		}
		left = condBinary{and: op == "and", l: left, r: right}
	}
}

func (p *condParser) sub() (condNode, error) {
	tok := p.peek()
	switch strings.ToLower(tok) {
	case "":
		return nil, fmt.Errorf("unexpected end of expression")
	case "(":
		p.pos++
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing ')'")
		}
		p.pos++
		return inner, nil
	case "not":
		p.pos++
		x, err := p.sub()
		if err != nil {
			return nil, err
		}
		return condNot{x: x}, nil
	case ")", "and", "or":
		return nil, fmt.Errorf("unexpected %q", tok)
	}
	p.pos++
	return condSymbol(tok), nil
}
