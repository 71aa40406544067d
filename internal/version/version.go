// Package version reports the build version of voxnote.
package version

import (
	"fmt"
	"os/exec"
	"runtime/debug"
	"strings"
)

// Set at link time with -ldflags "-X".
var (
	Version = "0.1.0"
	Commit  = ""
	Date    = ""
)

// Resolve returns the full version string, appending a git-derived suffix
// when the binary is run from inside a git repository whose HEAD is not on
// a release tag.
func Resolve() string {
	return resolveVersion(Version, runGit)
}

// Describe is the one-line banner printed by `voxnote version`.
func Describe() string {
	return describe(Resolve(), Commit, Date, readBuildSetting)
}

func describe(version, commit, date string, setting func(string) string) string {
	if commit == "" {
		commit = setting("vcs.revision")
	}
	if date == "" {
		date = setting("vcs.time")
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}

	var details []string
	if commit != "" {
		details = append(details, "commit "+commit)
	}
	if date != "" {
		details = append(details, "built "+date)
	}

	if len(details) == 0 {
		return "voxnote " + version
	}
	return fmt.Sprintf("voxnote %s (%s)", version, strings.Join(details, ", "))
}

func resolveVersion(base string, git func(...string) (string, error)) string {
	if base == "" {
		base = "0.0.0"
	}

	suffix := computeGitSuffix(base, git)
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

func computeGitSuffix(base string, git func(...string) (string, error)) string {
	if _, err := git("rev-parse", "--git-dir"); err != nil {
		return ""
	}
	if _, err := git("describe", "--tags", "--exact-match"); err == nil {
		return ""
	}

	desc, err := git("describe", "--tags", "--dirty", "--always")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(desc, "v"+base+"-")
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func runGit(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
