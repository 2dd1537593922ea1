package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		unit       string
		wantDim    string
		wantFactor float64
		wantErr    bool
	}{
		{name: "empty is dimensionless", unit: "", wantDim: "", wantFactor: 1},
		{name: "base meter", unit: "m", wantDim: "m", wantFactor: 1},
		{name: "millimeter", unit: "mm", wantDim: "m", wantFactor: 1e-3},
		{name: "centimeter", unit: "cm", wantDim: "m", wantFactor: 1e-2},
		{name: "kilometer", unit: "km", wantDim: "m", wantFactor: 1e3},
		{name: "kilopascal", unit: "kPa", wantDim: "Pa", wantFactor: 1e3},
		{name: "minute", unit: "min", wantDim: "s", wantFactor: 60},
		{name: "foot", unit: "ft", wantDim: "m", wantFactor: 0.3048},
		{name: "degrees", unit: "deg", wantDim: "rad", wantFactor: 0.017453292519943295},
		{name: "unknown", unit: "furlong", wantErr: true},
		{name: "double prefix", unit: "kmm", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			u, err := Parse(tc.unit)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantDim, u.Dim)
			assert.InEpsilon(t, tc.wantFactor, u.Factor, 1e-12)
		})
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	mm, err := Parse("mm")
	require.NoError(t, err)
	cm, err := Parse("cm")
	require.NoError(t, err)
	m, err := Parse("m")
	require.NoError(t, err)
	s, err := Parse("s")
	require.NoError(t, err)

	got, err := Convert(3000, mm, m)
	require.NoError(t, err)
	assert.InEpsilon(t, 3.0, got, 1e-12)

	got, err = Convert(1.0, m, cm)
	require.NoError(t, err)
	assert.InEpsilon(t, 100.0, got, 1e-12)

	got, err = Convert(400, cm, mm)
	require.NoError(t, err)
	assert.InEpsilon(t, 4000.0, got, 1e-12)

	_, err = Convert(1.0, m, s)
	require.Error(t, err)

	assert.True(t, Compatible(mm, m))
	assert.False(t, Compatible(m, Dimensionless))
}
