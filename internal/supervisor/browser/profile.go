package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ExitTypeNormal  = "Normal"
	ExitTypeCrashed = "Crashed"
)

// RepairProfile marks the profile in userDataDir as cleanly exited so the
// browser never shows its crash-recovery bubble. It returns the exit type
// that was recorded before the rewrite ("" when there was none). An
// unreadable preferences file is replaced.
func RepairProfile(userDataDir string) (string, error) {
	dir := filepath.Join(userDataDir, "Default")
	path := filepath.Join(dir, "Preferences")

	prefs := map[string]any{}
	previous := ""
	if b, err := os.ReadFile(path); err == nil {
		if jsonErr := json.Unmarshal(b, &prefs); jsonErr != nil || prefs == nil {
			prefs = map[string]any{}
			previous = ExitTypeCrashed
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("RepairProfile: %w", err)
	}

	profile, _ := prefs["profile"].(map[string]any)
	if profile == nil {
		profile = map[string]any{}
	}
	if v, ok := profile["exit_type"].(string); ok {
		previous = v
	}
	profile["exited_cleanly"] = true
	profile["exit_type"] = ExitTypeNormal
	prefs["profile"] = profile

	session, _ := prefs["session"].(map[string]any)
	if session == nil {
		session = map[string]any{}
	}
	session["restore_on_startup"] = 0
	prefs["session"] = session

	b, err := json.Marshal(prefs)
	if err != nil {
		return previous, fmt.Errorf("RepairProfile: %w", err)
	}
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return previous, fmt.Errorf("RepairProfile: %w", err)
	}
	tmp := path + ".piview"
	if err = os.WriteFile(tmp, b, 0o600); err != nil {
		return previous, fmt.Errorf("RepairProfile: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return previous, fmt.Errorf("RepairProfile: %w", err)
	}
	return previous, nil
}
