//go:build !windows

package spool

import (
	"fmt"
	"os"
	"syscall"
)

// deviceID returns the device ID of the filesystem containing path.
func deviceID(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("unsupported platform for device ID check")
	}
	return uint64(stat.Dev), nil
}

// ValidateSameFilesystem checks that every configured directory lives on
// one filesystem, which keeps the spool-to-processed moves atomic. Call
// after EnsureDirs.
func ValidateSameFilesystem(cfg DirConfig) error {
	base, err := deviceID(cfg.Spool)
	if err != nil {
		return err
	}
	for _, dir := range []string{cfg.Processed, cfg.Failed, cfg.State} {
		dev, err := deviceID(dir)
		if err != nil {
			return err
		}
		if dev != base {
			return fmt.Errorf("%s is on a different filesystem than %s", dir, cfg.Spool)
		}
	}
	return nil
}
