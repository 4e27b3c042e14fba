package correlation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddInstrumentSymmetric(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))

	a := Attrs{ID: "A", Kind: "Bond", Sector: "Government", Currency: "USD"}
	b := Attrs{ID: "B", Kind: "Bond", Sector: "Government", Currency: "USD"}
	c := Attrs{ID: "C", Kind: "Bond", Sector: "Government", Currency: "USD"}

	g.AddInstrument(a, nil, 1.0)
	g.AddInstrument(b, []Attrs{a}, 1.0)
	g.AddInstrument(c, []Attrs{a, b}, 1.0)

	for _, pair := range [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}} {
		cAB := g.Coefficient(pair[0], pair[1])
		cBA := g.Coefficient(pair[1], pair[0])
		assert.Equal(t, cAB, cBA, "coefficient must be symmetric")
		assert.GreaterOrEqual(t, cAB, 0.0)
		assert.LessOrEqual(t, cAB, 1.0)
	}
}

func TestCoefficientBounds(t *testing.T) {
	g := New(rand.New(rand.NewSource(2)))
	a := Attrs{ID: "A", Kind: "Bond", Sector: "Government", Currency: "USD"}
	b := Attrs{ID: "B", Kind: "Future", Sector: "Energy", Currency: "EUR"}

	g.AddInstrument(a, nil, 0.7)
	g.AddInstrument(b, []Attrs{a}, 0.7)

	c := g.Coefficient("A", "B")
	assert.GreaterOrEqual(t, c, -1.0)
	assert.LessOrEqual(t, c, 1.0)
}

func TestCoefficientSelfIsZero(t *testing.T) {
	g := New(rand.New(rand.NewSource(3)))
	assert.Equal(t, 0.0, g.Coefficient("A", "A"))
}

func TestRemoveInstrumentErasesRowAndColumn(t *testing.T) {
	g := New(rand.New(rand.NewSource(4)))
	a := Attrs{ID: "A", Kind: "Bond", Sector: "Government", Currency: "USD"}
	b := Attrs{ID: "B", Kind: "Bond", Sector: "Government", Currency: "USD"}

	g.AddInstrument(a, nil, 1.0)
	g.AddInstrument(b, []Attrs{a}, 1.0)
	assert.NotEqual(t, 0.0, g.Coefficient("A", "B"))

	g.RemoveInstrument("A")
	assert.Equal(t, 0.0, g.Coefficient("A", "B"))
	assert.Equal(t, 0.0, g.Coefficient("B", "A"))
	assert.Empty(t, g.Neighbors("B"))
}
