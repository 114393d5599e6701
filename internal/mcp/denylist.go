package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
)

// deniedPackages is a small known-malicious-package deny-list checked
// against a Stdio extension's command and arguments before spawn, per
// section 4.2.1. Extends the same defensive-check idiom as
// containsShellMetachars/validatePath in this package.
var deniedPackages = []string{
	"evil-mcp-server",
	"malicious-tool-runner",
}

// checkMaliciousPackage inspects the resolved command and its arguments
// for a known-bad package name (e.g. passed to npx/uvx as the package to
// run) and returns a structured extension error on a hit.
func checkMaliciousPackage(cfg *ServerConfig) error {
	candidates := append([]string{filepath.Base(cfg.Command)}, cfg.Args...)
	for _, candidate := range candidates {
		normalized := strings.ToLower(strings.TrimSpace(candidate))
		for _, denied := range deniedPackages {
			if normalized == denied || strings.Contains(normalized, denied) {
				return fmt.Errorf("refusing to start extension %s: %q is on the malicious-package deny-list", cfg.ID, candidate)
			}
		}
	}
	return nil
}
