package browser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPrefs(t *testing.T, dir string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "Default", "Preferences"))
	require.NoError(t, err)
	var prefs map[string]any
	require.NoError(t, json.Unmarshal(b, &prefs))
	return prefs
}

func TestRepairProfile(t *testing.T) {
	testCases := []struct {
		name        string
		existing    string
		expPrevious string
	}{
		{
			name:        "crashed profile is marked normal",
			existing:    `{"profile":{"exit_type":"Crashed","exited_cleanly":false,"name":"kiosk"},"homepage":"x"}`,
			expPrevious: ExitTypeCrashed,
		},
		{
			name:        "clean profile stays normal",
			existing:    `{"profile":{"exit_type":"Normal","exited_cleanly":true}}`,
			expPrevious: ExitTypeNormal,
		},
		{
			name:        "missing preferences are created",
			expPrevious: "",
		},
		{
			name:        "corrupt preferences are replaced",
			existing:    `{"profile":`,
			expPrevious: ExitTypeCrashed,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.existing != "" {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "Default"), 0o700))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "Default", "Preferences"), []byte(tc.existing), 0o600))
			}

			previous, err := RepairProfile(dir)
			require.NoError(t, err)
			assert.Equal(t, tc.expPrevious, previous)

			prefs := readPrefs(t, dir)
			profile := prefs["profile"].(map[string]any)
			assert.Equal(t, ExitTypeNormal, profile["exit_type"])
			assert.Equal(t, true, profile["exited_cleanly"])
			session := prefs["session"].(map[string]any)
			assert.Equal(t, float64(0), session["restore_on_startup"])
		})
	}
}

func TestRepairProfile_KeepsOtherSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Default"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Default", "Preferences"),
		[]byte(`{"profile":{"exit_type":"Crashed","name":"kiosk"},"homepage":"https://dash.example"}`), 0o600))

	_, err := RepairProfile(dir)
	require.NoError(t, err)
	prefs := readPrefs(t, dir)
	assert.Equal(t, "https://dash.example", prefs["homepage"])
	assert.Equal(t, "kiosk", prefs["profile"].(map[string]any)["name"])
}
