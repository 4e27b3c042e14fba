// Package filter evaluates declarative predicate trees against an
// instrument's field map.
package filter

import "encoding/json"

// Node is a recursive predicate tree node. Exactly one of the typed fields
// is meaningful, selected by Op.
type Node struct {
	Op       string
	Operands []*Node
	Var      string
	Literal  any
}

const varKey = "var"

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicalOps = map[string]bool{"and": true, "or": true, "not": true}

// UnmarshalJSON decodes the wire format described in the external
// interfaces contract: a recursive `{ operator: [operand, ...] }` object
// with a `{"var": "fieldName"}` leaf for field references, or a bare JSON
// literal for a constant operand.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil && len(raw) == 1 {
		for op, operandsRaw := range raw {
			if op == varKey {
				var name string
				if err := json.Unmarshal(operandsRaw, &name); err != nil {
					return err
				}
				n.Op = varKey
				n.Var = name
				return nil
			}

			var operands []*Node
			if err := json.Unmarshal(operandsRaw, &operands); err != nil {
				// "not" takes a single operand, not an array, in some
				// predicate dialects; accept both shapes.
				var single Node
				if err2 := json.Unmarshal(operandsRaw, &single); err2 != nil {
					return err
				}
				operands = []*Node{&single}
			}
			n.Op = op
			n.Operands = operands
			return nil
		}
	}

	var literal any
	if err := json.Unmarshal(data, &literal); err != nil {
		return err
	}
	n.Op = ""
	n.Literal = literal
	return nil
}

// IsLeafLiteral reports whether this node is a constant (neither an
// operator nor a var reference).
func (n *Node) IsLeafLiteral() bool {
	return n.Op == "" && n.Var == ""
}
