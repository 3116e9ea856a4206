/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package naming implements the deterministic name and label policy shared
// by every object k8r creates. Names are sanitized to RFC 1123 label shape
// and bounded so that derived names (the "-source" ConfigMap, "secret-"
// volume prefixes, composed secret storage names) still fit the 63 character
// object-name ceiling.
package naming

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/source"
)

// Label vocabulary. These values are an interop contract shared with any
// other k8r implementation and must be bit-exact.
const (
	// LabelCreatedBy marks every object this tool creates. All lookup, list
	// and delete operations filter on it so k8r never touches objects it did
	// not create.
	LabelCreatedBy = "created-by"
	// CreatedByValue is the fixed value of LabelCreatedBy.
	CreatedByValue = "k8r"
	// LabelJob carries the owning workload name.
	LabelJob = "k8r-job"
	// LabelSourceType carries the source.Kind the workload was built from.
	LabelSourceType = "k8r-source-type"
	// LabelType distinguishes Deployments from Jobs.
	LabelType = "k8r-type"
	// TypeDeployment is the LabelType value for Deployments.
	TypeDeployment = "deployment"
	// LabelSecret carries the user-chosen logical secret name.
	LabelSecret = "k8r-secret"
	// LabelDeployment is the pod selector label for Deployment workloads.
	LabelDeployment = "k8r-deployment"
)

const (
	// MaxWorkloadName reserves headroom below the 63 character ceiling so
	// suffixed names such as "<job>-source" remain valid.
	MaxWorkloadName = 55

	// maxObjectName is the cluster's object-name ceiling.
	maxObjectName = 63

	// SourceConfigMapSuffix is appended to the workload name to form the
	// source archive ConfigMap name.
	SourceConfigMapSuffix = "-source"

	// secretVolumePrefix is prepended to secret volume names inside a pod.
	secretVolumePrefix = "secret-"

	// envOriginalPwd lets the shell integration report the directory the
	// user invoked k8r from.
	envOriginalPwd = "K8R_ORIGINAL_PWD"
)

// Sanitize lowercases name, replaces every character outside [a-z0-9-] with
// a hyphen, collapses repeated hyphens, strips leading and trailing hyphens,
// and truncates to MaxWorkloadName. The function is idempotent.
func Sanitize(name string) string {
	return SanitizeMax(name, MaxWorkloadName)
}

// SanitizeMax is Sanitize with an explicit length bound.
func SanitizeMax(name string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if valid {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "unnamed"
	}
	if len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], "-")
	}
	return out
}

// DeriveName produces the workload name for a classified source. An explicit
// override wins; otherwise the name comes from the directory base name, the
// repository name parsed out of the GitHub URL, the Dockerfile's parent
// directory, or the image's repository component without tag or digest.
func DeriveName(kind source.Kind, ref, override string) (string, error) {
	if override != "" {
		return Sanitize(override), nil
	}

	switch kind {
	case source.Directory:
		return directoryName(ref)
	case source.GitHub:
		return Sanitize(repositoryName(ref)), nil
	case source.Dockerfile:
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidRequest, "resolving Dockerfile path", err)
		}
		return Sanitize(filepath.Base(filepath.Dir(abs))), nil
	case source.ContainerImage:
		return Sanitize(imageName(ref)), nil
	default:
		return "", errors.New(errors.ErrCodeInternal, "unknown source kind")
	}
}

func directoryName(ref string) (string, error) {
	if ref == "." || ref == "./" {
		// The shell function runs the binary from elsewhere; it exports the
		// directory the user was actually in.
		if orig := os.Getenv(envOriginalPwd); orig != "" {
			if fi, err := os.Stat(orig); err == nil && fi.IsDir() {
				return Sanitize(filepath.Base(orig)), nil
			}
		}
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, "resolving working directory", err)
		}
		return Sanitize(filepath.Base(cwd)), nil
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRequest, "resolving directory path", err)
	}
	return Sanitize(filepath.Base(abs)), nil
}

// repositoryName extracts the repository name from a GitHub URL, handling
// both the https and the scp-like git@ forms.
func repositoryName(url string) string {
	name := strings.TrimSuffix(url, ".git")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	} else if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// imageName returns the last repository path component of an image
// reference, without registry, tag or digest. Unparseable references fall
// back to sanitizing the raw string; they will fail at pull time anyway.
func imageName(ref string) string {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return ref
	}
	path := reference.Path(named)
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// SourceConfigMapName returns the name of the ConfigMap carrying a
// directory-mode source archive.
func SourceConfigMapName(workload string) string {
	return workload + SourceConfigMapSuffix
}

// SecretObjectName composes the cluster-stored name of a secret from its
// owning job and logical name. The truncation budget for the logical part is
// computed dynamically from the owner's length so the composed name never
// exceeds the object-name ceiling.
func SecretObjectName(ownerJob, logicalName string) string {
	owner := Sanitize(ownerJob)
	budget := maxObjectName - len(owner) - 1
	if budget <= 0 {
		owner = SanitizeMax(owner, 50)
		budget = maxObjectName - len(owner) - 1
	}
	return owner + "-" + SanitizeMax(logicalName, budget)
}

// SecretVolumeName returns the in-pod volume name for a bound secret.
func SecretVolumeName(logicalName string) string {
	return secretVolumePrefix + SanitizeMax(logicalName, maxObjectName-len(secretVolumePrefix))
}

// WorkloadLabels returns the object-level label set for a Job or Deployment.
func WorkloadLabels(name string, kind source.Kind, deployment bool) map[string]string {
	labels := map[string]string{
		LabelCreatedBy:  CreatedByValue,
		LabelJob:        name,
		LabelSourceType: string(kind),
	}
	if deployment {
		labels[LabelType] = TypeDeployment
	}
	return labels
}

// PodLabels returns the pod-template label set. Deployment pods additionally
// carry LabelDeployment, which the Deployment selector matches on.
func PodLabels(name string, deployment bool) map[string]string {
	labels := map[string]string{
		LabelCreatedBy: CreatedByValue,
		LabelJob:       name,
	}
	if deployment {
		labels[LabelDeployment] = name
	}
	return labels
}

// SecretLabels returns the label set for a stored secret.
func SecretLabels(ownerJob, logicalName string) map[string]string {
	return map[string]string{
		LabelCreatedBy: CreatedByValue,
		LabelJob:       Sanitize(ownerJob),
		LabelSecret:    logicalName,
	}
}

// OwnedSelector returns the label selector for k8r-owned objects, optionally
// narrowed with extra key=value terms.
func OwnedSelector(terms ...string) string {
	parts := append([]string{LabelCreatedBy + "=" + CreatedByValue}, terms...)
	return strings.Join(parts, ",")
}

// JobPodSelector selects the pods belonging to a Job workload.
func JobPodSelector(name string) string {
	return OwnedSelector(LabelJob + "=" + name)
}

// DeploymentPodSelector selects the pods belonging to a Deployment workload.
func DeploymentPodSelector(name string) string {
	return OwnedSelector(LabelDeployment + "=" + name)
}

// SecretSelector selects the secrets owned by a job name.
func SecretSelector(jobName string) string {
	return OwnedSelector(LabelJob + "=" + jobName)
}
