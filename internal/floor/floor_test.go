package floor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		expectErr   bool
		wantNumeric int
		wantBasmt   bool
	}{
		{name: "single digit", label: "1", wantNumeric: 1},
		{name: "three digit", label: "999", wantNumeric: 999},
		{name: "basement one", label: "B1", wantNumeric: -1, wantBasmt: true},
		{name: "basement max", label: "B99", wantNumeric: -99, wantBasmt: true},
		{name: "empty", label: "", expectErr: true},
		{name: "too long", label: "9999", expectErr: true},
		{name: "leading zero", label: "01", expectErr: true},
		{name: "basement leading zero", label: "B01", expectErr: true},
		{name: "zero", label: "0", expectErr: true},
		{name: "basement zero", label: "B0", expectErr: true},
		{name: "regular over max", label: "1000", expectErr: true},
		{name: "basement over max", label: "B100", expectErr: true},
		{name: "non digit tail", label: "1a", expectErr: true},
		{name: "sign character", label: "-1", expectErr: true},
		{name: "bare B", label: "B", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.label)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumeric, got.Numeric())
			assert.Equal(t, tt.wantBasmt, got.IsBasement())
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	labels := []string{"1", "2", "999", "B1", "B50", "B99"}
	for _, l := range labels {
		parsed, err := Parse(l)
		require.NoError(t, err)
		assert.Equal(t, l, Format(parsed.Numeric()))
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	a, _ := Parse("5")
	b, _ := Parse("B3")
	assert.Equal(t, -Compare(a, b), Compare(b, a))

	c, _ := Parse("5")
	assert.Equal(t, 0, Compare(a, c))
}

func TestNextToward(t *testing.T) {
	lo, _ := Parse("B5")
	hi, _ := Parse("20")

	t.Run("simple up step", func(t *testing.T) {
		cur, _ := Parse("3")
		dst, _ := Parse("7")
		got, err := NextToward(cur, dst, lo, hi)
		require.NoError(t, err)
		assert.Equal(t, "4", got.String())
	})

	t.Run("simple down step", func(t *testing.T) {
		cur, _ := Parse("7")
		dst, _ := Parse("3")
		got, err := NextToward(cur, dst, lo, hi)
		require.NoError(t, err)
		assert.Equal(t, "6", got.String())
	})

	t.Run("crosses basement boundary downward", func(t *testing.T) {
		cur, _ := Parse("1")
		dst, _ := Parse("B1")
		got, err := NextToward(cur, dst, lo, hi)
		require.NoError(t, err)
		assert.Equal(t, "B1", got.String())
	})

	t.Run("crosses basement boundary upward", func(t *testing.T) {
		cur, _ := Parse("B1")
		dst, _ := Parse("1")
		got, err := NextToward(cur, dst, lo, hi)
		require.NoError(t, err)
		assert.Equal(t, "1", got.String())
	})

	t.Run("already at destination", func(t *testing.T) {
		cur, _ := Parse("7")
		got, err := NextToward(cur, cur, lo, hi)
		require.NoError(t, err)
		assert.Equal(t, "7", got.String())
	})

	t.Run("out of range", func(t *testing.T) {
		cur, _ := Parse("20")
		dst, _ := Parse("21")
		_, err := NextToward(cur, dst, lo, hi)
		require.Error(t, err)
	})
}
