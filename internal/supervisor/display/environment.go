package display

import (
	"os"
	"os/user"
	"path/filepath"
)

const DefaultDisplay = ":0"

// Environment is what every X client the supervisor starts needs to reach
// the local display.
type Environment struct {
	Display    string
	XAuthority string
}

// DiscoverEnvironment fills the blanks of the given values. XAUTHORITY is
// looked up in the session user's home, the process home and root's home.
func DiscoverEnvironment(display, xauthority string) Environment {
	if display == "" {
		display = DefaultDisplay
	}
	env := Environment{Display: display, XAuthority: xauthority}
	if env.XAuthority != "" {
		return env
	}
	username := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	home, _ := os.UserHomeDir()
	env.XAuthority = firstExisting(xauthCandidates(username, home))
	return env
}

func xauthCandidates(username, home string) []string {
	var out []string
	if username != "" {
		out = append(out, filepath.Join("/home", username, ".Xauthority"))
	}
	if home != "" {
		out = append(out, filepath.Join(home, ".Xauthority"))
	}
	return append(out, "/root/.Xauthority")
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Vars returns the environment as KEY=VALUE pairs.
func (e Environment) Vars() []string {
	vars := []string{"DISPLAY=" + e.Display}
	if e.XAuthority != "" {
		vars = append(vars, "XAUTHORITY="+e.XAuthority)
	}
	return vars
}
