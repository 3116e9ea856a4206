/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/workload"
)

// Row is one workload in a listing.
type Row struct {
	Name       string
	Kind       workload.Kind
	SourceType string
	State      State
}

// List returns every k8r-owned workload in the namespace, sorted by name.
func (r *Runner) List(ctx context.Context) ([]Row, error) {
	var rows []Row

	jobs, err := r.client.BatchV1().Jobs(r.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: naming.OwnedSelector(),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "listing jobs", err)
	}
	for _, job := range jobs.Items {
		desired := int32(1)
		if job.Spec.Parallelism != nil {
			desired = *job.Spec.Parallelism
		}
		pods, err := r.listPods(ctx, naming.JobPodSelector(job.Name))
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			Name:       job.Name,
			Kind:       workload.KindJob,
			SourceType: job.Labels[naming.LabelSourceType],
			State:      census(desired, pods),
		})
	}

	deployments, err := r.client.AppsV1().Deployments(r.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: naming.OwnedSelector(),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "listing deployments", err)
	}
	for _, d := range deployments.Items {
		desired := int32(1)
		if d.Spec.Replicas != nil {
			desired = *d.Spec.Replicas
		}
		pods, err := r.listPods(ctx, naming.DeploymentPodSelector(d.Name))
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			Name:       d.Name,
			Kind:       workload.KindDeployment,
			SourceType: d.Labels[naming.LabelSourceType],
			State:      census(desired, pods),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

// PrintTable writes rows as an aligned table.
func PrintTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSOURCE\tDESIRED\tRUNNING\tCOMPLETE\tFAILED")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			row.Name, row.Kind, row.SourceType,
			row.State.Desired, row.State.Running, row.State.Complete, row.State.Failed)
	}
	return tw.Flush()
}
