/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package runner orchestrates the workload lifecycle: it turns a source
// reference into cluster objects, applies them, and watches the result. All
// validation happens before the first mutating cluster call, so a bad request
// never leaves partial residue behind.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/k8s-run/k8r/pkg/build"
	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/manifest"
	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/resources"
	"github.com/k8s-run/k8r/pkg/secrets"
	"github.com/k8s-run/k8r/pkg/source"
	"github.com/k8s-run/k8r/pkg/workload"
)

const (
	// defaultPollInterval paces the monitor loop.
	defaultPollInterval = 5 * time.Second

	// followPollInterval paces the monitor loop when logs are being followed,
	// so new pods are picked up quickly.
	followPollInterval = 2 * time.Second

	// deletionPollInterval paces the wait for a replaced workload to vanish.
	deletionPollInterval = 500 * time.Millisecond

	// deletionWaitLimit bounds the wait for a replaced workload to vanish.
	deletionWaitLimit = 60 * time.Second

	defaultTimeout   = "1h"
	defaultBaseImage = "alpine:latest"
)

var (
	jobGVK        = batchv1.SchemeGroupVersion.WithKind("Job")
	deploymentGVK = appsv1.SchemeGroupVersion.WithKind("Deployment")
	configMapGVK  = corev1.SchemeGroupVersion.WithKind("ConfigMap")
)

// Runner executes lifecycle operations against one namespace.
type Runner struct {
	client    kubernetes.Interface
	namespace string
	builder   build.Builder
	secrets   *secrets.Manager
	out       io.Writer
	interval  time.Duration
}

// New creates a Runner. Manifests and workload output go to out.
func New(client kubernetes.Interface, namespace string, builder build.Builder, out io.Writer) *Runner {
	return &Runner{
		client:    client,
		namespace: namespace,
		builder:   builder,
		secrets:   secrets.NewManager(client, namespace),
		out:       out,
		interval:  defaultPollInterval,
	}
}

// RunOptions carries everything the run operation accepts.
type RunOptions struct {
	// Source is the path, URL, Dockerfile path, or image reference to run.
	Source string
	// Command is the user command; empty falls back to the default.
	Command []string
	// Replicas below 1 is treated as 1.
	Replicas int32
	// Timeout is a duration string ("1h", "30m", "3600s", bare seconds).
	// Empty means the 1h default.
	Timeout string
	// BaseImage runs directory and GitHub sources. Empty means alpine:latest.
	BaseImage string
	// NameOverride replaces the derived workload name.
	NameOverride string
	// Detach returns right after creation instead of monitoring.
	Detach bool
	// ManifestOnly renders YAML to the output writer instead of applying.
	ManifestOnly bool
	// AsDeployment creates a Deployment instead of a Job.
	AsDeployment bool
	// RetryLimit switches the restart policy to OnFailure with the given
	// backoff budget. Nil keeps the Never policy.
	RetryLimit *int32
	// Follow streams pod logs while monitoring.
	Follow bool
	// Replace deletes an existing workload with the same name first.
	Replace bool
	// CPU and Memory are optional resource hints ("8gb", "500m-2000m").
	CPU    string
	Memory string
	// SecretJobName binds another workload's secrets instead of this one's.
	SecretJobName string
}

// Result describes what Run did and, for monitored Jobs, how it ended.
type Result struct {
	Name    string
	Kind    workload.Kind
	Outcome Outcome
	State   State
}

// Run executes the full run flow: classify, name, validate, synthesize,
// apply, monitor.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	spec, err := r.buildSpec(opts)
	if err != nil {
		return nil, err
	}

	if !opts.ManifestOnly {
		if err := r.ensureNameFree(ctx, spec, opts.Replace); err != nil {
			return nil, err
		}
	}

	if err := r.resolveImage(ctx, spec, opts); err != nil {
		return nil, err
	}

	podSpec := workload.PodSpec(spec)

	bindings, err := r.secrets.Discover(ctx, spec.SecretLookupName())
	if err != nil {
		return nil, err
	}
	if len(bindings) > 0 {
		if opts.ManifestOnly {
			slog.Warn("manifest references secrets that must exist before apply",
				"job", spec.SecretLookupName(), "count", len(bindings))
		} else {
			slog.Info("binding secrets", "job", spec.SecretLookupName(), "count", len(bindings))
		}
	}
	secrets.Bind(&podSpec, bindings)

	if spec.SourceKind == source.Directory {
		if err := r.deliverSource(ctx, spec, opts.ManifestOnly); err != nil {
			return nil, err
		}
	}

	result := &Result{Name: spec.Name, Kind: spec.Kind}

	if spec.Kind == workload.KindDeployment {
		deployment := workload.BuildDeployment(spec, podSpec)
		if opts.ManifestOnly {
			return result, manifest.Fprint(r.out, deployment, deploymentGVK)
		}
		if _, err := r.client.AppsV1().Deployments(r.namespace).Create(ctx, deployment, metav1.CreateOptions{}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeApplyFailed,
				fmt.Sprintf("creating deployment %q", spec.Name), err)
		}
		slog.Info("deployment created", "name", spec.Name, "replicas", spec.Replicas)
		return result, nil
	}

	job := workload.BuildJob(spec, podSpec)
	if opts.ManifestOnly {
		return result, manifest.Fprint(r.out, job, jobGVK)
	}
	if _, err := r.client.BatchV1().Jobs(r.namespace).Create(ctx, job, metav1.CreateOptions{}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeApplyFailed,
			fmt.Sprintf("creating job %q", spec.Name), err)
	}
	slog.Info("job created", "name", spec.Name, "replicas", spec.Replicas)

	if opts.Detach {
		return result, nil
	}

	if opts.Follow {
		result.Outcome, result.State, err = r.MonitorWithLogs(ctx, spec)
	} else {
		result.Outcome, result.State, err = r.Monitor(ctx, spec)
	}
	return result, err
}

// buildSpec validates and normalizes the request into a workload spec. No
// cluster calls happen here.
func (r *Runner) buildSpec(opts RunOptions) (*workload.Spec, error) {
	kind := source.Classify(opts.Source)

	name, err := naming.DeriveName(kind, opts.Source, opts.NameOverride)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == "" {
		timeout = defaultTimeout
	}
	timeoutSeconds, err := resources.ParseTimeout(timeout)
	if err != nil {
		return nil, err
	}

	spec := &workload.Spec{
		Name:           name,
		Kind:           workload.KindJob,
		Namespace:      r.namespace,
		SourceKind:     kind,
		SourceRef:      opts.Source,
		Command:        opts.Command,
		Replicas:       max(opts.Replicas, 1),
		TimeoutSeconds: timeoutSeconds,
		RestartPolicy:  corev1.RestartPolicyNever,
		SecretJobName:  opts.SecretJobName,
	}
	if opts.AsDeployment {
		spec.Kind = workload.KindDeployment
	}
	if opts.RetryLimit != nil {
		spec.RestartPolicy = corev1.RestartPolicyOnFailure
		spec.BackoffLimit = *opts.RetryLimit
	}

	if opts.CPU != "" {
		cpu, err := resources.Normalize(opts.CPU)
		if err != nil {
			return nil, err
		}
		spec.CPU = &cpu
	}
	if opts.Memory != "" {
		mem, err := resources.Normalize(opts.Memory)
		if err != nil {
			return nil, err
		}
		spec.Memory = &mem
	}

	return spec, nil
}

// resolveImage fills spec.Image. Dockerfile sources build and push unless the
// run is manifest-only, in which case the composed reference stands in.
func (r *Runner) resolveImage(ctx context.Context, spec *workload.Spec, opts RunOptions) error {
	switch spec.SourceKind {
	case source.ContainerImage:
		spec.Image = spec.SourceRef
	case source.Dockerfile:
		if opts.ManifestOnly {
			spec.Image = r.builder.ImageRef(spec.Name)
			slog.Warn("manifest references an image that has not been built",
				"image", spec.Image)
			return nil
		}
		ref, err := r.builder.Build(ctx, spec.SourceRef, spec.Name)
		if err != nil {
			return err
		}
		spec.Image = ref
	default:
		spec.Image = opts.BaseImage
		if spec.Image == "" {
			spec.Image = defaultBaseImage
		}
	}
	return nil
}

// ensureNameFree fails on a name collision, or clears it when replace is set.
// Only k8r-owned objects are ever replaced.
func (r *Runner) ensureNameFree(ctx context.Context, spec *workload.Spec, replace bool) error {
	existing, err := r.getWorkloadLabels(ctx, spec.Name, spec.Kind)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("checking for existing %s %q", spec.Kind, spec.Name), err)
	}

	if !replace {
		return errors.NewWithContext(errors.ErrCodeNameConflict,
			fmt.Sprintf("%s %q already exists, pass --rm to replace it or --job-name to pick another name", spec.Kind, spec.Name),
			map[string]any{"name": spec.Name, "kind": string(spec.Kind)})
	}
	if existing[naming.LabelCreatedBy] != naming.CreatedByValue {
		return errors.New(errors.ErrCodeNameConflict,
			fmt.Sprintf("%s %q exists but was not created by k8r, refusing to replace it", spec.Kind, spec.Name))
	}

	slog.Info("replacing existing workload", "name", spec.Name, "kind", spec.Kind)
	// Scoped to the kind being replaced: a Job and a Deployment may share a
	// name, and only the same-kind object is the replacement victim.
	if err := r.deleteWorkload(ctx, spec.Name, spec.Kind, existing, true, false); err != nil {
		return err
	}
	return r.waitForNameFree(ctx, spec)
}

func (r *Runner) getWorkloadLabels(ctx context.Context, name string, kind workload.Kind) (map[string]string, error) {
	if kind == workload.KindDeployment {
		d, err := r.client.AppsV1().Deployments(r.namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, err
		}
		return d.Labels, nil
	}
	j, err := r.client.BatchV1().Jobs(r.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return j.Labels, nil
}

// waitForNameFree polls until the replaced workload is actually gone, so the
// follow-up create does not race the cascading delete.
func (r *Runner) waitForNameFree(ctx context.Context, spec *workload.Spec) error {
	deadline := time.Now().Add(deletionWaitLimit)
	for {
		_, err := r.getWorkloadLabels(ctx, spec.Name, spec.Kind)
		if apierrors.IsNotFound(err) {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New(errors.ErrCodeTimeout,
				fmt.Sprintf("waiting for %s %q to be deleted", spec.Kind, spec.Name))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(deletionPollInterval):
		}
	}
}

// deliverSource archives the local directory into the source ConfigMap and
// applies it, or renders it in manifest mode.
func (r *Runner) deliverSource(ctx context.Context, spec *workload.Spec, manifestOnly bool) error {
	archive, err := workload.BuildArchive(spec.SourceRef)
	if err != nil {
		return err
	}
	cm := workload.SourceConfigMap(spec, archive)

	if manifestOnly {
		return manifest.Fprint(r.out, cm, configMapGVK)
	}

	_, err = r.client.CoreV1().ConfigMaps(r.namespace).Create(ctx, cm, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = r.client.CoreV1().ConfigMaps(r.namespace).Update(ctx, cm, metav1.UpdateOptions{})
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeApplyFailed,
			fmt.Sprintf("applying source configmap %q", cm.Name), err)
	}
	return nil
}
