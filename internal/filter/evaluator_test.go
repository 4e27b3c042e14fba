package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

func parseTree(t *testing.T, src string) *Node {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(src), &n))
	return &n
}

func bondFields() instrument.FieldMap {
	in := &instrument.Instrument{
		ID:     "US10Y",
		Kind:   instrument.KindBond,
		Sector: "Government",
		Status: instrument.StatusActive,
		Bond: &instrument.BondFields{
			Price:    101.25,
			BidPrice: 101.2,
			AskPrice: 101.3,
		},
	}
	return in.FieldMap()
}

func TestEmptyFilterPassesThrough(t *testing.T) {
	e := New(nil)
	assert.True(t, e.Eval(nil, bondFields()))
}

func TestEqualityOnSecurityType(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{"==": [{"var":"securityType"}, "Bond"]}`)
	assert.True(t, e.Eval(tree, bondFields()))

	tree2 := parseTree(t, `{"==": [{"var":"securityType"}, "Future"]}`)
	assert.False(t, e.Eval(tree2, bondFields()))
}

func TestComparisonOperators(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{">": [{"var":"price"}, 100]}`)
	assert.True(t, e.Eval(tree, bondFields()))

	tree2 := parseTree(t, `{"<=": [{"var":"price"}, 100]}`)
	assert.False(t, e.Eval(tree2, bondFields()))
}

func TestLogicalAndOr(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{"and": [{"==": [{"var":"securityType"}, "Bond"]}, {">": [{"var":"price"}, 100]}]}`)
	assert.True(t, e.Eval(tree, bondFields()))

	tree2 := parseTree(t, `{"or": [{"==": [{"var":"securityType"}, "Future"]}, {">": [{"var":"price"}, 100]}]}`)
	assert.True(t, e.Eval(tree2, bondFields()))
}

func TestMembership(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{"in": [{"var":"securityType"}, ["Bond", "Swap"]]}`)
	assert.True(t, e.Eval(tree, bondFields()))
}

func TestUnknownFieldEvaluatesFalseWithoutPanic(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{"==": [{"var":"doesNotExist"}, "x"]}`)
	assert.NotPanics(t, func() {
		assert.False(t, e.Eval(tree, bondFields()))
	})
}

func TestUnsupportedOperatorEvaluatesFalse(t *testing.T) {
	e := New(nil)
	tree := parseTree(t, `{"xor": [{"var":"price"}, 1]}`)
	assert.False(t, e.Eval(tree, bondFields()))
}
