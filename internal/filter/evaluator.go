package filter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

// Evaluator evaluates a predicate tree against an instrument's field map.
// It is pure and side-effect-free apart from logging; it never panics and
// collapses any evaluation error to a non-match.
type Evaluator struct {
	logger *zap.Logger
}

// New constructs an Evaluator. logger is injected, never a package global,
// so tests can assert on logged evaluation errors without races.
func New(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Eval returns whether fields matches tree. A nil tree (no predicate on the
// subscription) always matches.
func (e *Evaluator) Eval(tree *Node, fields instrument.FieldMap) bool {
	if tree == nil {
		return true
	}
	v, err := e.eval(tree, fields)
	if err != nil {
		e.logger.Debug("predicate evaluation error", zap.Error(err), zap.String("op", tree.Op))
		return false
	}
	return v
}

func (e *Evaluator) eval(n *Node, fields instrument.FieldMap) (bool, error) {
	switch n.Op {
	case "and":
		for _, operand := range n.Operands {
			v, err := e.eval(operand, fields)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case "or":
		for _, operand := range n.Operands {
			v, err := e.eval(operand, fields)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case "not":
		if len(n.Operands) != 1 {
			return false, fmt.Errorf("not: expected exactly one operand, got %d", len(n.Operands))
		}
		v, err := e.eval(n.Operands[0], fields)
		if err != nil {
			return false, err
		}
		return !v, nil
	case "==", "!=", "<", "<=", ">", ">=":
		return e.evalComparison(n, fields)
	case "in":
		return e.evalMembership(n, fields)
	default:
		return false, fmt.Errorf("unsupported operator %q", n.Op)
	}
}

func (e *Evaluator) evalComparison(n *Node, fields instrument.FieldMap) (bool, error) {
	if len(n.Operands) != 2 {
		return false, fmt.Errorf("%s: expected exactly two operands, got %d", n.Op, len(n.Operands))
	}
	a, err := resolve(n.Operands[0], fields)
	if err != nil {
		return false, err
	}
	b, err := resolve(n.Operands[1], fields)
	if err != nil {
		return false, err
	}
	return compare(n.Op, a, b)
}

func (e *Evaluator) evalMembership(n *Node, fields instrument.FieldMap) (bool, error) {
	if len(n.Operands) != 2 {
		return false, fmt.Errorf("in: expected exactly two operands, got %d", len(n.Operands))
	}
	needle, err := resolve(n.Operands[0], fields)
	if err != nil {
		return false, err
	}
	haystack, err := resolve(n.Operands[1], fields)
	if err != nil {
		return false, err
	}
	items, ok := haystack.([]any)
	if !ok {
		return false, fmt.Errorf("in: right operand is not a list")
	}
	for _, item := range items {
		if eq, err := compare("==", needle, item); err == nil && eq {
			return true, nil
		}
	}
	return false, nil
}

// resolve turns a node into a comparable Go value: a var leaf is looked up
// in the field map, a literal leaf is returned as-is, anything else (a
// nested operator) is a type error in operand position.
func resolve(n *Node, fields instrument.FieldMap) (any, error) {
	if n.Var != "" {
		fv, ok := fields[n.Var]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", n.Var)
		}
		switch fv.Kind {
		case instrument.FieldNumber:
			return fv.Number(), nil
		case instrument.FieldString, instrument.FieldEnum:
			return fv.String(), nil
		case instrument.FieldBool:
			return fv.Bool(), nil
		case instrument.FieldTimestamp:
			return float64(fv.Time().UnixMilli()), nil
		default:
			return nil, fmt.Errorf("field %q has unsupported kind", n.Var)
		}
	}
	if n.IsLeafLiteral() {
		if arr, ok := n.Literal.([]any); ok {
			return arr, nil
		}
		if f, ok := n.Literal.(float64); ok {
			return f, nil
		}
		return n.Literal, nil
	}
	return nil, fmt.Errorf("operator %q used in operand position", n.Op)
}

func compare(op string, a, b any) (bool, error) {
	switch op {
	case "==":
		return valuesEqual(a, b), nil
	case "!=":
		return !valuesEqual(a, b), nil
	case "<", "<=", ">", ">=":
		af, aok := a.(float64)
		bf, bok := b.(float64)
		if !aok || !bok {
			return false, fmt.Errorf("%s: operands must be numeric", op)
		}
		switch op {
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		default:
			return af >= bf, nil
		}
	default:
		return false, fmt.Errorf("unsupported comparison operator %q", op)
	}
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}
