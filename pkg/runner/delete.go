/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/workload"
)

// Delete removes the named workload, its pods, and its source ConfigMap.
// Workloads with live pods are refused unless force is set. Secrets are
// preserved unless cascadeSecrets is set, so a replacement run can reuse
// them.
func (r *Runner) Delete(ctx context.Context, name string, force, cascadeSecrets bool) error {
	kind, labels, err := r.findWorkload(ctx, name)
	if err != nil {
		return err
	}
	return r.deleteWorkload(ctx, name, kind, labels, force, cascadeSecrets)
}

// deleteWorkload is the kind-scoped delete. Jobs and Deployments share a
// name space per kind, so callers that already know which kind they mean
// (the replace path) must never fall through to the other one.
func (r *Runner) deleteWorkload(ctx context.Context, name string, kind workload.Kind, labels map[string]string, force, cascadeSecrets bool) error {
	if labels[naming.LabelCreatedBy] != naming.CreatedByValue {
		return errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s %q was not created by k8r, refusing to delete it", kind, name))
	}

	if !force {
		pods, err := r.listPods(ctx, naming.JobPodSelector(name))
		if err != nil {
			return err
		}
		live := 0
		for _, pod := range pods {
			if pod.Status.Phase == corev1.PodPending || pod.Status.Phase == corev1.PodRunning {
				live++
			}
		}
		if live > 0 {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("%s %q has %d live pods, pass --force to delete it anyway", kind, name, live),
				map[string]any{"name": name, "live_pods": live})
		}
	}

	propagation := metav1.DeletePropagationBackground
	deleteOpts := metav1.DeleteOptions{PropagationPolicy: &propagation}

	var err error
	if kind == workload.KindDeployment {
		err = r.client.AppsV1().Deployments(r.namespace).Delete(ctx, name, deleteOpts)
	} else {
		err = r.client.BatchV1().Jobs(r.namespace).Delete(ctx, name, deleteOpts)
	}
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("deleting %s %q", kind, name), err)
	}
	slog.Info("workload deleted", "name", name, "kind", kind)

	cmErr := r.client.CoreV1().ConfigMaps(r.namespace).Delete(ctx,
		naming.SourceConfigMapName(name), metav1.DeleteOptions{})
	if cmErr != nil && !apierrors.IsNotFound(cmErr) {
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("deleting source configmap for %q", name), cmErr)
	}

	if cascadeSecrets {
		deleted, err := r.secrets.DeleteForJob(ctx, name)
		if err != nil {
			return err
		}
		if deleted > 0 {
			slog.Info("secrets deleted", "job", name, "count", deleted)
		}
		return nil
	}

	remaining, err := r.secrets.ListForJob(ctx, name)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		slog.Info("secrets preserved, pass --rm-secrets to delete them",
			"job", name, "count", len(remaining))
	}
	return nil
}

// findWorkload resolves a name to its kind, checking Jobs before
// Deployments.
func (r *Runner) findWorkload(ctx context.Context, name string) (workload.Kind, map[string]string, error) {
	job, err := r.client.BatchV1().Jobs(r.namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return workload.KindJob, job.Labels, nil
	}
	if !apierrors.IsNotFound(err) {
		return "", nil, errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("looking up job %q", name), err)
	}

	d, err := r.client.AppsV1().Deployments(r.namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return workload.KindDeployment, d.Labels, nil
	}
	if !apierrors.IsNotFound(err) {
		return "", nil, errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("looking up deployment %q", name), err)
	}

	return "", nil, errors.NewWithContext(errors.ErrCodeNotFound,
		fmt.Sprintf("no k8r workload named %q", name),
		map[string]any{"name": name, "namespace": r.namespace})
}
