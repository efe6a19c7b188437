package epr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
lj: 11.0e-9
frequencies: [5.19381e9, 7.1e9, 8.3e9]
reduced_zpf: [0.35, 0.04, 0.02]
variation: 0
`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 11.0e-9, p.Lj)
	assert.Len(t, p.Frequencies, 3)
	assert.Equal(t, 0, p.AncillaMode())
	assert.Equal(t, 5.19381e9, p.AncillaFrequency())
}

func TestAncillaModeLargestZPF(t *testing.T) {
	p := Parameters{Lj: 1e-9, Frequencies: []float64{7e9, 5e9}, ReducedZPF: []float64{0.03, 0.4}}
	assert.Equal(t, 1, p.AncillaMode())
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"missing lj":      "frequencies: [5e9]\nreduced_zpf: [0.1]\n",
		"length mismatch": "lj: 1e-9\nfrequencies: [5e9, 6e9]\nreduced_zpf: [0.1]\n",
		"negative zpf":    "lj: 1e-9\nfrequencies: [5e9]\nreduced_zpf: [-0.1]\n",
		"unknown field":   "lj: 1e-9\nfrequencies: [5e9]\nreduced_zpf: [0.1]\njunction_LJ: 3\n",
		"no modes":        "lj: 1e-9\n",
	}
	for name, doc := range cases {
		_, err := Decode(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Variation)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
