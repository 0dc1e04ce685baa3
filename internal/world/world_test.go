package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/economy"
)

const stateCSV = `Country,Population,Water,MetallicElements,Alloys
Atlantis,100,500,300,
Brobdingnag,50,0,50,10
`

const weightsCSV = `Resource,Weight,Transferable
Population,0,False
Water,1,TRUE
MetallicElements,0,0
Alloys,2,1
`

const templatesJSON = `{
  "CreateAlloys": {
    "Inputs": {"MetallicElements": 2, "Water": 1},
    "Outputs": {"Alloys": 1}
  }
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadWorldState(t *testing.T) {
	tbl, err := LoadWorldState(writeFile(t, "state.csv", stateCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Population", "Water", "MetallicElements", "Alloys"}, tbl.Resources)
	assert.Equal(t, []string{"Atlantis", "Brobdingnag"}, tbl.Agents)
	assert.Equal(t, 300.0, tbl.Rows["Atlantis"]["MetallicElements"])

	_, held := tbl.Rows["Atlantis"]["Alloys"]
	assert.False(t, held, "empty cell means the resource is absent")
	assert.Equal(t, 10.0, tbl.Rows["Brobdingnag"]["Alloys"])
}

func TestReadWorldStateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"no resources", "Country\nA\n"},
		{"bad number", "Country,Water\nA,lots\n"},
		{"duplicate", "Country,Water\nA,1\nA,2\n"},
		{"ragged", "Country,Water,Timber\nA,1\n"},
		{"nan", "Country,Population,Water\nA,NaN,500\n"},
		{"inf", "Country,Population,Water\nA,100,+Inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWorldState(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestWorldStateRoundTrip(t *testing.T) {
	tbl, err := ReadWorldState(strings.NewReader(stateCSV))
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteWorldState(p, tbl))
	back, err := LoadWorldState(p)
	require.NoError(t, err)
	assert.Equal(t, tbl, back)
}

func TestLoadWeights(t *testing.T) {
	w, err := LoadWeights(writeFile(t, "weights.csv", weightsCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, w.Len())
	assert.Equal(t, 2.0, w.Weight("Alloys"))
	assert.True(t, w.Transferable("Water"))
	assert.True(t, w.Transferable("Alloys"))
	assert.False(t, w.Transferable("MetallicElements"))
	assert.False(t, w.Transferable("Population"))
	assert.Equal(t, 0.0, w.Weight("Unobtainium"))
}

func TestReadWeightsErrors(t *testing.T) {
	_, err := ReadWeights(strings.NewReader("Resource,Weight\nWater,1\n"))
	assert.Error(t, err)

	_, err = ReadWeights(strings.NewReader("Resource,Weight,Transferable\nWater,1,maybe\n"))
	assert.Error(t, err)

	_, err = ReadWeights(strings.NewReader("Resource,Weight,Transferable\nWater,heavy,1\n"))
	assert.Error(t, err)

	_, err = ReadWeights(strings.NewReader("Resource,Weight,Transferable\nWater,NaN,1\n"))
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestReadWorldStateRejectsNonFinite(t *testing.T) {
	_, err := ReadWorldState(strings.NewReader("Country,Population,Water\nA,NaN,500\n"))
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = ReadWorldState(strings.NewReader("Country,Population,Water\nA,-inf,500\n"))
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestLoadCatalog(t *testing.T) {
	cat, digest, err := LoadCatalog(writeFile(t, "templates.json", templatesJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"CreateAlloys"}, cat.Names())
	tpl, ok := cat.Get("CreateAlloys")
	require.True(t, ok)
	assert.Equal(t, 2.0, tpl.Inputs["MetallicElements"])
	assert.Equal(t, Digest([]byte(templatesJSON)), digest)
	assert.Len(t, digest, 64)
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"empty", `{}`},
		{"missing outputs", `{"T": {"Inputs": {"Water": 1}}}`},
		{"no outputs", `{"T": {"Inputs": {}, "Outputs": {}}}`},
		{"negative", `{"T": {"Inputs": {"Water": -1}, "Outputs": {"Alloys": 1}}}`},
		{"string quantity", `{"T": {"Inputs": {"Water": "1"}, "Outputs": {"Alloys": 1}}}`},
		{"unknown key", `{"T": {"Inputs": {}, "Outputs": {"Alloys": 1}, "Cost": 3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestBuildLedgers(t *testing.T) {
	tbl, err := ReadWorldState(strings.NewReader(stateCSV))
	require.NoError(t, err)
	w, err := ReadWeights(strings.NewReader(weightsCSV))
	require.NoError(t, err)

	ledgers, err := BuildLedgers(tbl, w, []string{"Brobdingnag", "Atlantis"})
	require.NoError(t, err)
	require.Len(t, ledgers, 2)
	assert.Equal(t, "Brobdingnag", ledgers[0].Name)
	// (0*1 + 50*0 + 10*2) / 50
	assert.InDelta(t, 0.4, ledgers[0].Utility, 1e-12)
	// 500 / 100
	assert.InDelta(t, 5.0, ledgers[1].Utility, 1e-12)

	_, err = BuildLedgers(tbl, w, []string{"Carpania"})
	assert.ErrorIs(t, err, economy.ErrUnknownAgent)

	tbl.Rows["Atlantis"][economy.PopulationResource] = 0
	_, err = BuildLedgers(tbl, w, []string{"Atlantis"})
	assert.ErrorIs(t, err, economy.ErrNoPopulation)
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99

	a := Generate(cfg)
	b := Generate(cfg)
	assert.Equal(t, a, b)
	assert.Equal(t, cfg.Agents, a.Agents)
	assert.Equal(t, cfg.Resources, a.Resources)

	for _, agent := range a.Agents {
		row := a.Rows[agent]
		assert.Len(t, row, len(cfg.Resources))
		assert.GreaterOrEqual(t, row[economy.PopulationResource], 1.0)
		for r, q := range row {
			assert.GreaterOrEqual(t, q, 0.0, r)
			assert.LessOrEqual(t, q, cfg.Base[r]*1.25+1, r)
		}
	}
}

func TestGeneratedWorldLoads(t *testing.T) {
	cfg := SmallGenConfig()
	tbl := Generate(cfg)

	p := filepath.Join(t.TempDir(), "generated.csv")
	require.NoError(t, WriteWorldState(p, tbl))
	back, err := LoadWorldState(p)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, back.Rows)

	ledgers, err := BuildLedgers(back, economy.NewWeightTable(), cfg.Agents)
	require.NoError(t, err)
	assert.Len(t, ledgers, len(cfg.Agents))
	assert.Equal(t, Totals(tbl)["Water"], ledgers[0].Held("Water")+ledgers[1].Held("Water"))
}
