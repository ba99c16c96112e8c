package spool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// dirPerm is the permission for spool-managed directories.
const dirPerm = 0750

// DirConfig holds the spool directory layout.
type DirConfig struct {
	Spool     string `yaml:"spool" json:"spool"`         // incoming capture files
	Processed string `yaml:"processed" json:"processed"` // decoded captures
	Failed    string `yaml:"failed" json:"failed"`       // captures that could not decode
	State     string `yaml:"state" json:"state"`         // pid file and scratch
}

// DefaultDirConfig returns reasonable defaults for a system install.
func DefaultDirConfig() DirConfig {
	return DirConfig{
		Spool:     "/var/lib/jdwptap/spool",
		Processed: "/var/lib/jdwptap/processed",
		Failed:    "/var/lib/jdwptap/failed",
		State:     "/var/lib/jdwptap/state",
	}
}

// EnsureDirs creates all required directories. Idempotent.
func EnsureDirs(cfg DirConfig) error {
	dirs := []string{
		cfg.Spool,
		cfg.Processed,
		cfg.Failed,
		cfg.State,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// moveFile moves src to dst using os.Rename. If rename fails with EXDEV
// (cross-device link, common with systemd ReadWritePaths bind mounts),
// it falls back to copy + remove.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	// Check for EXDEV (cross-device link).
	var errno syscall.Errno
	if !errors.As(err, &errno) || errno != syscall.EXDEV {
		return err
	}
	// Fallback: copy then remove.
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFile copies src to dst preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
