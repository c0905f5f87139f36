package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductPlantKey(t *testing.T) {
	k := ProductPlantKey{Product: "P-1", Plant: "1000"}
	assert.Equal(t, "P-1/1000", k.String())
	assert.True(t, k.Valid())
	assert.False(t, ProductPlantKey{Product: "P-1"}.Valid())
	assert.False(t, ProductPlantKey{Plant: "1000"}.Valid())
}

func TestProductPlantKey_StringIsInjective(t *testing.T) {
	pairs := [][2]ProductPlantKey{
		{{Product: "A__B", Plant: "C"}, {Product: "A", Plant: "B__C"}},
		{{Product: "A/B", Plant: "C"}, {Product: "A", Plant: "B/C"}},
		{{Product: "A%2FB", Plant: "C"}, {Product: "A/B", Plant: "C"}},
	}
	for _, p := range pairs {
		assert.NotEqual(t, p[0].String(), p[1].String(), "%+v vs %+v", p[0], p[1])
	}
}

func TestProductPlant_HasTaxControlCode(t *testing.T) {
	var p *ProductPlant
	assert.False(t, p.HasTaxControlCode())
	assert.False(t, (&ProductPlant{TaxControlCode: " "}).HasTaxControlCode())
	assert.True(t, (&ProductPlant{TaxControlCode: "8471"}).HasTaxControlCode())
}
