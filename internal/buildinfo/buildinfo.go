package buildinfo

import "fmt"

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for UI/logging.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Long returns the multi-line version banner printed by the CLIs.
func Long(name string) string {
	return fmt.Sprintf("%s\n\n  Version: %s\n  Commit:  %s\n  Built:   %s\n", name, Version, Commit, Date)
}
