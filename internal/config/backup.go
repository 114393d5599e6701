package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// backupDepth is the length of the .bak rotation chain (.bak, .bak.1..5).
const backupDepth = 5

// writeConfigFile implements the write protocol of section 4.3.2: rotate
// the current valid file into the .bak chain, then serialize the full
// mapping to a sibling <path>.tmp, fsync it, and atomically rename it over
// the primary path. All writes to one store are already serialized by
// ParamStore.writeMu; this function additionally never rotates a corrupt
// file into the chain and never leaves a .tmp file behind on success.
func writeConfigFile(path string, raw map[string]any, logger *slog.Logger) error {
	rotateBackups(path, logger)

	payload, err := marshalConfigYAML(raw)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening temp config file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp config file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsyncing temp config file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp config file into place: %w", err)
	}
	return nil
}

// rotateBackups shifts <path>.bak.4 -> .bak.5, ..., <path>.bak -> .bak.1,
// then copies the current primary file (if it parses) into <path>.bak.
// Rotation is best-effort: a failed rename is logged and swallowed so the
// write still proceeds, per section 4.3.5.
func rotateBackups(path string, logger *slog.Logger) {
	if !currentFileParses(path) {
		return
	}

	for i := backupDepth - 1; i >= 1; i-- {
		src := backupPath(path, i)
		dst := backupPath(path, i+1)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			logger.Warn("backup rotation failed", "src", src, "dst", dst, "error", err)
		}
	}

	bak := path + ".bak"
	if _, err := os.Stat(bak); err == nil {
		if err := os.Rename(bak, backupPath(path, 1)); err != nil {
			logger.Warn("backup rotation failed", "src", bak, "dst", backupPath(path, 1), "error", err)
		}
	}

	if err := copyFile(path, bak); err != nil {
		logger.Warn("backup snapshot failed", "path", path, "error", err)
	}
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.bak.%d", path, n)
}

func currentFileParses(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_, err := LoadRaw(path)
	return err == nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}

// selfHealingRead implements section 4.3.3: if the primary file exists and
// parses, use it. If it exists but fails to parse, walk the .bak chain and
// return the first entry that parses, promoting it over the primary. If
// nothing exists or parses, write a fresh default (optionally seeded from a
// workspace init-config.yaml) and return it.
func selfHealingRead(path string, logger *slog.Logger) (map[string]any, error) {
	if raw, err := LoadRaw(path); err == nil {
		return raw, nil
	} else if _, statErr := os.Stat(path); statErr == nil {
		logger.Warn("primary config failed to parse, walking backup chain", "path", path, "error", err)
	}

	candidates := []string{path + ".bak"}
	for i := 1; i <= backupDepth; i++ {
		candidates = append(candidates, backupPath(path, i))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		raw, err := LoadRaw(candidate)
		if err != nil {
			continue
		}
		if err := promoteBackup(candidate, path); err != nil {
			logger.Warn("failed to promote backup over primary", "candidate", candidate, "error", err)
		}
		return raw, nil
	}

	seeded, err := seedDefault(path)
	if err != nil {
		return nil, err
	}
	if err := writeConfigFile(path, seeded, logger); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}
	return seeded, nil
}

// promoteBackup copies a parsing backup over the (corrupt or missing)
// primary file without disturbing the .bak chain itself.
func promoteBackup(candidate, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return copyFile(candidate, path)
}

// seedDefault returns an empty mapping, optionally seeded from a
// discoverable workspace init-config.yaml sitting next to path.
func seedDefault(path string) (map[string]any, error) {
	initPath := filepath.Join(filepath.Dir(path), "init-config.yaml")
	if _, err := os.Stat(initPath); err == nil {
		if raw, err := LoadRaw(initPath); err == nil {
			return raw, nil
		}
	}
	return map[string]any{}, nil
}
