// Package provenance builds the FrameworkMetadata block that accompanies every
// FrameworkResults document: build profile, git branch and SHA recovered from the local
// checkout via go-git, plus basic CPU provenance (spec §3). The git_version field carries
// the Go toolchain version (runtime.Version()); no version is read from git.
package provenance

import (
	"runtime"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"

	"github.com/karlmdavis/fhir-benchmarks/internal/results"
)

// BuildProfile is set at link time via -ldflags "-X ...BuildProfile=release" in release
// builds; it defaults to "debug" for a plain `go build`.
var BuildProfile = "debug"

// Gather opens the git repository containing workDir (walking up through its ancestors
// to find the enclosing `.git`, unlike config.BenchmarkDir's single-directory check) and reads its
// current branch and commit SHA. Any failure to read git provenance is non-fatal — the
// fields are simply left blank, since provenance is diagnostic, not load-bearing.
func Gather(workDir string) results.FrameworkMetadata {
	meta := results.FrameworkMetadata{
		BuildProfile: BuildProfile,
		GitVersion:   runtime.Version(),
		CPUCores:     runtime.NumCPU(),
		CPUBrand:     runtime.GOARCH,
	}

	repo, err := git.PlainOpenWithOptions(workDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return meta
	}

	head, err := repo.Head()
	if err != nil {
		return meta
	}

	meta.GitSHA = head.Hash().String()
	if head.Name().IsBranch() {
		meta.GitBranch = head.Name().Short()
	} else {
		meta.GitBranch = string(plumbing.HEAD)
	}

	return meta
}
