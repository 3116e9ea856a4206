/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/workload"
)

// Outcome is the terminal verdict of a monitored Job.
type Outcome string

const (
	// OutcomeSucceeded means every requested completion finished.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means pod failures exhausted the retry budget.
	OutcomeFailed Outcome = "failed"
	// OutcomeTimedOut means the run exceeded its timeout.
	OutcomeTimedOut Outcome = "timed-out"
)

// State is a point-in-time pod census of a workload.
type State struct {
	// Desired is the requested replica count.
	Desired int32
	// Running counts pending and running pods.
	Running int32
	// Complete counts succeeded pods.
	Complete int32
	// Failed counts failed pods.
	Failed int32
}

func (s State) String() string {
	return fmt.Sprintf("%d/%d complete, %d running, %d failed",
		s.Complete, s.Desired, s.Running, s.Failed)
}

// Monitor polls the workload's pods until the Job reaches a terminal state,
// the timeout elapses, or the context is canceled. Cancellation is clean: the
// workload keeps running in the cluster.
func (r *Runner) Monitor(ctx context.Context, spec *workload.Spec) (Outcome, State, error) {
	return r.monitor(ctx, spec, r.interval, nil)
}

// MonitorWithLogs is Monitor with per-pod log streaming. Pods are picked up
// as they appear and their logs are interleaved on the output writer, each
// line prefixed with the pod name.
func (r *Runner) MonitorWithLogs(ctx context.Context, spec *workload.Spec) (Outcome, State, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, streamCtx := errgroup.WithContext(streamCtx)
	followed := map[string]bool{}

	onPoll := func(pods []corev1.Pod) {
		for i := range pods {
			pod := pods[i]
			if followed[pod.Name] || pod.Status.Phase == corev1.PodPending {
				continue
			}
			followed[pod.Name] = true
			group.Go(func() error {
				return r.streamPodLogs(streamCtx, pod.Name, true)
			})
		}
	}

	outcome, state, err := r.monitor(ctx, spec, followPollInterval, onPoll)

	// Give trailing log lines a moment to drain, then shut the streams down.
	if err == nil {
		time.Sleep(followPollInterval)
	}
	cancel()
	if waitErr := group.Wait(); waitErr != nil && !isCanceled(waitErr) && err == nil {
		err = waitErr
	}
	return outcome, state, err
}

func (r *Runner) monitor(ctx context.Context, spec *workload.Spec, interval time.Duration, onPoll func([]corev1.Pod)) (Outcome, State, error) {
	var deadline time.Time
	if spec.TimeoutSeconds > 0 {
		deadline = time.Now().Add(time.Duration(spec.TimeoutSeconds) * time.Second)
	}

	var last State
	for {
		pods, err := r.listPods(ctx, naming.JobPodSelector(spec.Name))
		if err != nil {
			return "", last, err
		}
		if onPoll != nil {
			onPoll(pods)
		}

		state := census(spec.Replicas, pods)
		if state != last {
			slog.Info("job status", "name", spec.Name,
				"complete", state.Complete, "running", state.Running,
				"failed", state.Failed, "desired", state.Desired)
			last = state
		}

		if state.Complete >= state.Desired && state.Failed == 0 {
			return OutcomeSucceeded, state, nil
		}
		if state.Failed > 0 && (spec.RestartPolicy == corev1.RestartPolicyNever || state.Failed > spec.BackoffLimit) {
			return OutcomeFailed, state, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return OutcomeTimedOut, state, nil
		}

		select {
		case <-ctx.Done():
			return "", last, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// census folds pod phases into a State.
func census(desired int32, pods []corev1.Pod) State {
	state := State{Desired: desired}
	for _, pod := range pods {
		switch pod.Status.Phase {
		case corev1.PodSucceeded:
			state.Complete++
		case corev1.PodFailed:
			state.Failed++
		default:
			state.Running++
		}
	}
	return state
}

func (r *Runner) listPods(ctx context.Context, selector string) ([]corev1.Pod, error) {
	list, err := r.client.CoreV1().Pods(r.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "listing pods", err)
	}
	return list.Items, nil
}

// streamPodLogs copies one pod's log to the output writer, prefixing each
// line with the pod name.
func (r *Runner) streamPodLogs(ctx context.Context, podName string, follow bool) error {
	req := r.client.CoreV1().Pods(r.namespace).GetLogs(podName, &corev1.PodLogOptions{
		Follow: follow,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		if isCanceled(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("streaming logs for pod %q", podName), err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		fmt.Fprintf(r.out, "[%s] %s\n", podName, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !isCanceled(err) {
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("reading logs for pod %q", podName), err)
	}
	return nil
}

func isCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
