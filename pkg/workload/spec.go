/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package workload synthesizes the Kubernetes objects for a run request.
// All synthesis is in-memory: the package never talks to the cluster, so a
// synthesis error can never leave cluster-side residue.
package workload

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/k8s-run/k8r/pkg/resources"
	"github.com/k8s-run/k8r/pkg/source"
)

// Kind is the workload object kind.
type Kind string

const (
	// KindJob is a batch/v1 Job.
	KindJob Kind = "Job"
	// KindDeployment is an apps/v1 Deployment.
	KindDeployment Kind = "Deployment"
)

// Spec is the canonical intermediate representation of a run request, built
// and validated before any object is rendered or applied.
type Spec struct {
	// Name is the sanitized workload name, unique within namespace+kind.
	Name string
	// Kind selects the Job or Deployment wrapper.
	Kind Kind
	// Namespace scopes every object of this run.
	Namespace string
	// SourceKind is the classification of SourceRef.
	SourceKind source.Kind
	// SourceRef is the path, URL, Dockerfile path, or image reference.
	SourceRef string
	// Image is the resolved main container image: BaseImage for directory
	// and GitHub sources, the built-and-pushed image for Dockerfile sources,
	// and SourceRef itself for container sources.
	Image string
	// Command is the user command. Empty falls back to the image entrypoint
	// (container sources only; directory and GitHub sources always wrap).
	Command []string
	// Replicas maps to parallelism+completions (Job) or replicas
	// (Deployment). Always at least 1.
	Replicas int32
	// TimeoutSeconds becomes the Job's activeDeadlineSeconds; 0 disables.
	// Ignored for Deployments.
	TimeoutSeconds int64
	// RestartPolicy is Never or OnFailure. Deployments always run with
	// Always, the only policy they support.
	RestartPolicy corev1.RestartPolicy
	// BackoffLimit is 0 for RestartPolicy Never, or the retry budget for
	// OnFailure.
	BackoffLimit int32
	// CPU and Memory are optional normalized quantity ranges applied to the
	// main container.
	CPU    *resources.Range
	Memory *resources.Range
	// SecretJobName is the job identity used for secret discovery. Defaults
	// to Name; a different value binds another workload's secrets.
	SecretJobName string
}

// SecretLookupName returns the job name used for secret discovery.
func (s *Spec) SecretLookupName() string {
	if s.SecretJobName != "" {
		return s.SecretJobName
	}
	return s.Name
}
