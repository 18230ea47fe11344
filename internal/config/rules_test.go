package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRules_RepositoryFile(t *testing.T) {
	cfg, err := LoadRules("")
	require.NoError(t, err)

	futsal, err := cfg.For("25_26", "futsal")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), futsal)

	handball, err := cfg.For("25_26", "andebol")
	require.NoError(t, err)
	assert.Equal(t, 6, handball.Division1PlayoffCutoff)
	assert.Equal(t, ModePlayoff, handball.MaintenanceMode)

	old, err := cfg.For("24_25", "andebol")
	require.NoError(t, err)
	assert.Equal(t, 5, old.Division1PlayoffCutoff, "season/modality key wins")
	assert.Equal(t, ModeLeague, old.MaintenanceMode, "season key still applies")
	assert.Equal(t, Points{Win: 3, Draw: 2, Loss: 1}, old.Points)
}

func TestLoadRules_PartialFile(t *testing.T) {
	path := writeRules(t, `{"default": {"direct_relegation": 3}, "overrides": {"volei": {"maintenance_mode": "none"}}}`)

	cfg, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Default.DirectRelegation)
	assert.Equal(t, 8, cfg.Default.PlayoffSpots, "missing fields keep built-in values")

	rules := cfg.MustFor("25_26", "volei")
	assert.Equal(t, ModeNone, rules.MaintenanceMode)
	assert.Equal(t, 3, rules.DirectRelegation)
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, `{not json`))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, `{"overrides": {"futsal": {"maintenance_mode": "sometimes"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "futsal")
}

func TestMustFor_FallsBackToDefault(t *testing.T) {
	cfg := DefaultRulesConfig()
	cfg.Overrides["futsal"] = []byte(`{"playoff_spots": -1}`)

	assert.Equal(t, DefaultRules(), cfg.MustFor("25_26", "futsal"))
}

func TestReserveConvention(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		team    string
		reserve bool
		a       string
	}{
		{"Física B", true, "Física"},
		{"Gestão b", true, "Gestão"},
		{"Física", false, "Física"},
		{"EB", false, "EB"},
		{" B", false, " B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.reserve, rules.IsReserve(tt.team), tt.team)
		assert.Equal(t, tt.a, rules.ATeam(tt.team), tt.team)
	}
}
