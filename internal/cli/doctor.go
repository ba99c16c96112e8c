package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/config"
	"github.com/jdwptap/jdwptap/internal/journal"
	"github.com/jdwptap/jdwptap/internal/spool"
	"github.com/jdwptap/jdwptap/internal/store"
	"github.com/jdwptap/jdwptap/internal/systemd"
)

var doctorConfig string

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVarP(&doctorConfig, "config", "c", "", "Path to config YAML (default: ~/.jdwptap/config.yaml)")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check deployment readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "jdwptap binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "jdwptap binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Configuration.
	cfg, err := config.Load(doctorConfig)
	if err != nil {
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: err.Error(),
			fix:    "jdwptap watch --print-config > ~/.jdwptap/config.yaml",
		})
		printChecks(checks)
		return fmt.Errorf("doctor found issues")
	}
	checks = append(checks, checkResult{
		label:  "config",
		ok:     true,
		detail: configDetail(),
	})

	// 3. Pipeline directories.
	checks = append(checks, dirsCheck(cfg.Dirs))

	// 4. Journal integrity.
	checks = append(checks, journalCheck(cfg.Journal))

	// 5. Store, when one is configured.
	if cfg.Store != "" {
		checks = append(checks, storeCheck(cfg.Store))
	}

	// 6. systemd unit (Linux only).
	if runtime.GOOS == "linux" {
		checks = append(checks, unitCheck())
	}

	printChecks(checks)

	for _, c := range checks {
		if !c.ok {
			fmt.Println()
			fmt.Println("Some checks failed. Run the suggested commands to fix.")
			return fmt.Errorf("doctor found issues")
		}
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}

func configDetail() string {
	path := doctorConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "defaults in use"
		}
		path = filepath.Join(home, ".jdwptap", "config.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return "defaults in use (no file)"
	}
	return path
}

func dirsCheck(dirs spool.DirConfig) checkResult {
	var missing []string
	for _, dir := range []string{dirs.Spool, dirs.Processed, dirs.Failed, dirs.State} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			missing = append(missing, dir)
		}
	}
	if len(missing) > 0 {
		return checkResult{
			label:  "pipeline dirs",
			ok:     false,
			detail: "missing: " + strings.Join(missing, ", "),
			fix:    "jdwptap watch creates them on start",
		}
	}
	if err := spool.ValidateSameFilesystem(dirs); err != nil {
		return checkResult{
			label:  "pipeline dirs",
			ok:     false,
			detail: err.Error(),
			fix:    "keep all four directories on one filesystem for atomic moves",
		}
	}
	return checkResult{label: "pipeline dirs", ok: true, detail: dirs.Spool}
}

func journalCheck(path string) checkResult {
	if _, err := os.Stat(path); err != nil {
		return checkResult{label: "journal", ok: true, detail: "not created yet"}
	}
	result := journal.Verify(path)
	if !result.Valid {
		return checkResult{
			label:  "journal",
			ok:     false,
			detail: fmt.Sprintf("line %d: %s", result.ErrorLine, result.Error),
		}
	}
	return checkResult{label: "journal", ok: true, detail: fmt.Sprintf("%d entries verified", result.Lines)}
}

func storeCheck(path string) checkResult {
	if _, err := os.Stat(path); err != nil {
		return checkResult{label: "store", ok: true, detail: "not created yet"}
	}
	st, err := store.Open(path)
	if err != nil {
		return checkResult{label: "store", ok: false, detail: err.Error()}
	}
	defer st.Close()

	counts, err := st.Count("")
	if err != nil {
		return checkResult{label: "store", ok: false, detail: err.Error()}
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return checkResult{label: "store", ok: true, detail: fmt.Sprintf("%d events", total)}
}

func unitCheck() checkResult {
	unitPath := systemd.FindUnitFile()
	if unitPath == "" {
		return checkResult{label: "systemd unit", ok: true, detail: "not installed (optional)"}
	}
	missing, err := systemd.CheckUnitFile(unitPath)
	if err != nil {
		return checkResult{label: "systemd unit", ok: false, detail: err.Error()}
	}
	if len(missing) > 0 {
		return checkResult{
			label:  "systemd unit",
			ok:     false,
			detail: unitPath + " missing " + strings.Join(missing, ", "),
			fix:    "jdwptap watch --print-systemd-unit",
		}
	}
	return checkResult{label: "systemd unit", ok: true, detail: unitPath}
}

func printChecks(checks []checkResult) {
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
		}
		line := fmt.Sprintf("%s %-16s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}
}
