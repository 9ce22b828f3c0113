// Package version identifies the docent build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped by the release build:
//
//	-ldflags "-X github.com/soyeahso/docent/internal/version.Version=v0.3.0 -X ...Commit=<sha> -X ...Date=<rfc3339>"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

// Current returns the stamped values. An unstamped binary installed with
// `go install` reports its module version and VCS revision instead.
func Current() Build {
	b := Build{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if Version != "dev" {
		return b
	}
	info, ok := readBuildInfo()
	if !ok {
		return b
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		b.Version = v
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "unknown":
			b.Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			b.Date = s.Value
		}
	}
	return b
}

// Info is the one-line form printed by `docent version`.
func Info() string {
	b := Current()
	return fmt.Sprintf("docent %s (commit %s, built %s, %s, %s)", b.Version, short(b.Commit), b.Date, b.GoVersion, b.Platform)
}

func short(sha string) string {
	const n = 7
	if len(sha) > n {
		return sha[:n]
	}
	return sha
}
