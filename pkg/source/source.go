/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package source classifies workload sources. A source string names either a
// local directory, a Dockerfile, a GitHub repository, or a container image
// reference; classification is total and never touches the network.
package source

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind is the classification of where workload code or its image comes from.
// The string values are part of the label contract (k8r-source-type) and
// must not change.
type Kind string

const (
	// Directory is a local directory shipped to the cluster as a ConfigMap.
	Directory Kind = "directory"
	// GitHub is a repository cloned inside the running pod.
	GitHub Kind = "github"
	// Dockerfile is a local Dockerfile built and pushed before the run.
	Dockerfile Kind = "dockerfile"
	// ContainerImage is an image reference run directly.
	ContainerImage Kind = "container"
)

// Classify maps a source string to exactly one Kind. Rules are evaluated in
// order: existing directory, existing Dockerfile, GitHub URL shape, and
// finally the container image fallback. The Dockerfile check must precede
// the image fallback or every bare filename would classify as an image.
// Invalid image references are not validated here; they surface later as
// pod pull errors.
func Classify(src string) Kind {
	if fi, err := os.Stat(src); err == nil {
		if fi.IsDir() {
			return Directory
		}
		if fi.Mode().IsRegular() && isDockerfileName(src) {
			return Dockerfile
		}
	}

	if isGitHubURL(src) {
		return GitHub
	}

	return ContainerImage
}

func isDockerfileName(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == "dockerfile" || strings.HasSuffix(base, ".dockerfile")
}

func isGitHubURL(src string) bool {
	return strings.HasPrefix(src, "git@github.com:") ||
		strings.HasPrefix(src, "https://github.com/") ||
		strings.HasPrefix(src, "http://github.com/")
}
