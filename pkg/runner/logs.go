/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
)

// Logs prints the logs of every pod belonging to the named workload. Job pods
// are found first, Deployment pods as a fallback. With follow, streams stay
// open until the pods finish or the context is canceled.
func (r *Runner) Logs(ctx context.Context, name string, follow bool) error {
	pods, err := r.listPods(ctx, naming.JobPodSelector(name))
	if err != nil {
		return err
	}
	if len(pods) == 0 {
		pods, err = r.listPods(ctx, naming.DeploymentPodSelector(name))
		if err != nil {
			return err
		}
	}
	if len(pods) == 0 {
		return errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("no pods found for workload %q", name),
			map[string]any{"name": name, "namespace": r.namespace})
	}

	group, ctx := errgroup.WithContext(ctx)
	for i := range pods {
		podName := pods[i].Name
		group.Go(func() error {
			return r.streamPodLogs(ctx, podName, follow)
		})
	}
	return group.Wait()
}
