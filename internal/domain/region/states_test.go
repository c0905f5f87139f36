package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		region   string
		wantName string
		wantCode string
	}{
		{"abbreviation", "MH", "Maharashtra", "27"},
		{"lowercase abbreviation", "ka", "Karnataka", "29"},
		{"alias abbreviation", "TG", "Telangana", "36"},
		{"numeric code", "07", "Delhi", "07"},
		{"numeric code without padding", "7", "Delhi", "07"},
		{"numeric code with extra zero", "033", "Tamil Nadu", "33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Lookup(tt.region)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, s.Name)
			assert.Equal(t, tt.wantCode, s.Code)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, ok := Lookup("ZZ")
		assert.False(t, ok)
		_, ok = Lookup("")
		assert.False(t, ok)
		_, ok = Lookup("25")
		assert.False(t, ok)
	})
}

func TestResolve(t *testing.T) {
	name, code := Resolve("GJ")
	assert.Equal(t, "Gujarat", name)
	assert.Equal(t, "24", code)

	name, code = Resolve("Bavaria")
	assert.Equal(t, "Bavaria", name)
	assert.Empty(t, code)
}
