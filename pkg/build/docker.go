/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package build turns a Dockerfile into a pushed image reference. It shells
// out to the docker CLI; the rest of the system only ever sees the resulting
// reference, so any OCI builder could be substituted behind the Builder
// interface.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/distribution/reference"

	"github.com/k8s-run/k8r/pkg/errors"
)

const (
	// envRegistry and envProject configure where built images are pushed.
	envRegistry = "K8R_REGISTRY"
	envProject  = "K8R_PROJECT"

	defaultRegistry = "gcr.io"
	defaultProject  = "default-project"
)

// Builder builds and pushes an image for a Dockerfile and returns its
// reference.
type Builder interface {
	// Build builds dockerfilePath and pushes the result tagged for name.
	Build(ctx context.Context, dockerfilePath, name string) (string, error)
	// ImageRef returns the reference a build for name would produce, without
	// building. Used by manifest-only rendering.
	ImageRef(name string) string
}

// DockerCLI is the docker-command-line Builder.
type DockerCLI struct {
	Registry string
	Project  string
}

// NewDockerCLI creates a DockerCLI configured from the environment.
func NewDockerCLI() *DockerCLI {
	registry := os.Getenv(envRegistry)
	if registry == "" {
		registry = defaultRegistry
	}
	project := os.Getenv(envProject)
	if project == "" {
		project = defaultProject
	}
	return &DockerCLI{Registry: registry, Project: project}
}

// ImageRef composes the registry/project/name:latest reference.
func (d *DockerCLI) ImageRef(name string) string {
	return fmt.Sprintf("%s/%s/%s:latest", d.Registry, d.Project, name)
}

// Build runs docker build and docker push for the Dockerfile. The build
// context is the Dockerfile's directory.
func (d *DockerCLI) Build(ctx context.Context, dockerfilePath, name string) (string, error) {
	imageRef := d.ImageRef(name)
	if _, err := reference.ParseNormalizedNamed(imageRef); err != nil {
		return "", errors.Wrap(errors.ErrCodeBuildFailed,
			fmt.Sprintf("invalid image reference %q", imageRef), err)
	}

	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBuildFailed, "docker not found in PATH", err)
	}

	abs, err := filepath.Abs(dockerfilePath)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBuildFailed,
			fmt.Sprintf("resolving Dockerfile path %q", dockerfilePath), err)
	}
	contextDir := filepath.Dir(abs)

	slog.Info("building image", "image", imageRef, "dockerfile", abs)
	buildCmd := exec.CommandContext(ctx, dockerPath, "build", "-f", abs, "-t", imageRef, contextDir)
	buildCmd.Stdout = os.Stderr
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		return "", errors.Wrap(errors.ErrCodeBuildFailed,
			fmt.Sprintf("docker build failed for %q", imageRef), err)
	}

	slog.Info("pushing image", "image", imageRef)
	pushCmd := exec.CommandContext(ctx, dockerPath, "push", imageRef)
	pushCmd.Stdout = os.Stderr
	pushCmd.Stderr = os.Stderr
	if err := pushCmd.Run(); err != nil {
		return "", errors.Wrap(errors.ErrCodeBuildFailed,
			fmt.Sprintf("docker push failed for %q", imageRef), err)
	}

	return imageRef, nil
}
