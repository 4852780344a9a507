package condition

import (
	"fmt"
	"strings"
)

// Resolver supplies field values during evaluation.
type Resolver interface {
	Resolve(field string) (interface{}, bool)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(field string) (interface{}, bool)

func (f ResolverFunc) Resolve(field string) (interface{}, bool) { return f(field) }

// Condition is a parsed where clause, safe for concurrent evaluation.
type Condition struct {
	src  string
	root Expr
}

// Compile parses src and checks every referenced field with known.
// A nil known accepts any field name.
func Compile(src string, known func(field string) bool) (*Condition, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", src, err)
	}
	if known != nil {
		var unknown []string
		for _, f := range Fields(root) {
			if !known(f) {
				unknown = append(unknown, f)
			}
		}
		if len(unknown) > 0 {
			return nil, fmt.Errorf("where %q: unknown field(s) %s", src, strings.Join(unknown, ", "))
		}
	}
	return &Condition{src: src, root: root}, nil
}

// Eval evaluates the condition against r.
func (c *Condition) Eval(r Resolver) (bool, error) {
	return Evaluate(c.root, r)
}

func (c *Condition) String() string { return c.src }

// Evaluate walks the AST and returns true/false or an error.
func Evaluate(expr Expr, r Resolver) (bool, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		return evalBinary(e, r)
	case *NotExpr:
		v, err := Evaluate(e.Expr, r)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *ComparisonExpr:
		left, err := resolveOperand(e.Left, r)
		if err != nil {
			return false, err
		}
		right, err := resolveOperand(e.Right, r)
		if err != nil {
			return false, err
		}
		return compare(e.Op, left, right)
	case *InExpr:
		v, err := resolveOperand(e.Left, r)
		if err != nil {
			return false, err
		}
		return member(v, e.Set), nil
	case *TruthExpr:
		v, err := resolveOperand(e.Operand, r)
		if err != nil {
			return false, err
		}
		return truthy(v)
	default:
		return false, fmt.Errorf("unknown expr type %T", expr)
	}
}

func evalBinary(e *BinaryExpr, r Resolver) (bool, error) {
	left, err := Evaluate(e.Left, r)
	if err != nil {
		return false, err
	}
	switch e.Op {
	case "AND":
		if !left {
			return false, nil
		}
		return Evaluate(e.Right, r)
	case "OR":
		if left {
			return true, nil
		}
		return Evaluate(e.Right, r)
	default:
		return false, fmt.Errorf("unknown binary op %q", e.Op)
	}
}

func resolveOperand(op Operand, r Resolver) (interface{}, error) {
	switch o := op.(type) {
	case *LiteralOperand:
		return o.Value, nil
	case *FieldOperand:
		val, ok := r.Resolve(o.Name)
		if !ok {
			return nil, fmt.Errorf("field %q not found", o.Name)
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unknown operand type %T", op)
	}
}
