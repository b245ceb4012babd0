// Package paths resolves files that ship next to the binary.
//
// Relative paths are anchored to the install root (the directory holding the
// running executable) so lookups do not depend on the process working
// directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EnvInstallRoot overrides the detected install root, e.g. for `go run` or containers.
const EnvInstallRoot = "NUMEROBOT_HOME"

var (
	rootOnce sync.Once
	rootDir  string
	rootErr  error
)

// InstallRoot returns the absolute directory the bot was installed into.
func InstallRoot() (string, error) {
	if env := os.Getenv(EnvInstallRoot); env != "" {
		return filepath.Abs(env)
	}
	rootOnce.Do(func() {
		exe, err := os.Executable()
		if err != nil {
			rootErr = fmt.Errorf("paths: locate executable: %w", err)
			return
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		rootDir = filepath.Dir(exe)
	})
	return rootDir, rootErr
}

// Resolve returns p unchanged when absolute, otherwise joins it onto InstallRoot.
func Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("paths: empty path")
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	root, err := InstallRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, p), nil
}
