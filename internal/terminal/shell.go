package terminal

import (
	"os"
	"os/exec"
	"strings"
)

const (
	assistantBinary = "claude"
	fallbackShell   = "/bin/zsh"

	// Appended to PATH so Homebrew installs are visible without a login shell.
	pathSuffix = ":/opt/homebrew/bin:/usr/local/bin:/usr/bin:/bin"
)

var assistantInstallPaths = []string{
	"/opt/homebrew/bin/claude",
	"/usr/local/bin/claude",
}

// ResolveCommand picks the program a new session runs: the assistant binary
// when it can be found on PATH or in a known install location, otherwise the
// user's shell.
func ResolveCommand() string {
	if path, err := exec.LookPath(assistantBinary); err == nil {
		return path
	}
	for _, candidate := range assistantInstallPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return fallbackShell
}

// SessionEnv rewrites the base environment for a PTY child: forces a color
// terminal and extends PATH with the standard install locations.
func SessionEnv(base []string) []string {
	env := make([]string, 0, len(base)+3)
	path := ""
	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, "TERM="), strings.HasPrefix(kv, "COLORTERM="):
			continue
		case strings.HasPrefix(kv, "PATH="):
			path = strings.TrimPrefix(kv, "PATH=")
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"PATH="+path+pathSuffix,
	)
	return env
}
