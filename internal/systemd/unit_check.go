package systemd

import (
	"fmt"
	"os"
	"strings"
)

// UnitFilePaths are the paths checked for an installed jdwptap unit.
var UnitFilePaths = []string{
	"/etc/systemd/system/jdwptap-watch.service",
	"/etc/systemd/system/jdwptap.service",
}

// RequiredDirectives are the hardening directives a deployed unit must
// keep. Operators tune resource limits freely; these are not optional.
var RequiredDirectives = []string{
	"NoNewPrivileges=true",
	"PrivateTmp=true",
	"ProtectSystem=strict",
	"ReadWritePaths=",
}

// CheckUnitFile reads an installed unit file and reports which required
// directives it is missing. An empty slice means the unit passes.
func CheckUnitFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("systemd: read unit file: %w", err)
	}
	return missingDirectives(string(data)), nil
}

// FindUnitFile returns the first installed unit path, or empty string
// when jdwptap is not deployed under systemd.
func FindUnitFile() string {
	for _, p := range UnitFilePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func missingDirectives(content string) []string {
	var missing []string
	for _, d := range RequiredDirectives {
		if !containsDirective(content, d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// containsDirective matches at line starts so a commented-out
// directive does not count as present.
func containsDirective(content, directive string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), directive) {
			return true
		}
	}
	return false
}
