package common

import (
	"fmt"
	"runtime/debug"
)

// Version and GitCommit can be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func GetModuleBuildInfo() (string, string, bool) {
	if Version != "dev" {
		return Version, GitCommit, true
	}

	// Fall back to the module information embedded by the go tool
	if info, ok := debug.ReadBuildInfo(); ok {
		version := info.Main.Version
		var gitCommit string

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitCommit = setting.Value
				break
			}
		}

		return version, gitCommit, true
	}
	return "", "", false
}

// GetUserAgent is sent with every API request unless overridden in config.
func GetUserAgent() string {
	version, _, ok := GetModuleBuildInfo()
	if !ok || len(version) == 0 {
		version = "dev"
	}
	return fmt.Sprintf("sushigram-configtool/%s", version)
}
