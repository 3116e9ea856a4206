/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"k8s.io/utils/ptr"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/runner"
	"github.com/k8s-run/k8r/pkg/workload"
)

// defaultCommand runs when the user gives a source but no command.
var defaultCommand = []string{"echo", "No command specified"}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Run a source as a Kubernetes Job or Deployment",
		ArgsUsage:             "SOURCE [COMMAND...]",
		Description: `Run a source on the cluster. The source is classified automatically:

  - an existing directory is archived and shipped via ConfigMap
  - a Dockerfile is built and pushed with the docker CLI
  - a github.com URL is cloned inside the pod
  - anything else is treated as a container image reference

The remaining arguments form the command to run. Jobs are monitored until
they complete, fail, or time out; pass --detach to return immediately.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "num",
				Aliases: []string{"n"},
				Value:   1,
				Usage:   "Number of parallel replicas",
			},
			&cli.StringFlag{
				Name:  "timeout",
				Value: "1h",
				Usage: "Job timeout (e.g. 30m, 2h, 3600s)",
			},
			&cli.StringFlag{
				Name:    "base-image",
				Value:   "alpine:latest",
				Usage:   "Base image for directory and GitHub sources",
				Sources: cli.EnvVars("K8R_BASE_IMAGE"),
			},
			&cli.StringFlag{
				Name:  "job-name",
				Usage: "Override the derived workload name",
			},
			&cli.BoolFlag{
				Name:    "detach",
				Aliases: []string{"d"},
				Usage:   "Return immediately after creating the workload",
			},
			&cli.BoolFlag{
				Name:  "show-yaml",
				Usage: "Print the manifests to stdout instead of applying them",
			},
			&cli.BoolFlag{
				Name:  "as-deployment",
				Usage: "Create a Deployment instead of a Job",
			},
			&cli.IntFlag{
				Name:  "retry",
				Usage: "Retry failed pods up to N times (restart policy OnFailure)",
			},
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Stream pod logs while monitoring",
			},
			&cli.BoolFlag{
				Name:  "rm",
				Usage: "Replace an existing workload with the same name",
			},
			&cli.StringFlag{
				Name:  "mem",
				Usage: "Memory request/limit (e.g. 8gb, 2gb-8gb)",
			},
			&cli.StringFlag{
				Name:  "cpu",
				Usage: "CPU request/limit (e.g. 500m, 0.5-2)",
			},
			&cli.StringFlag{
				Name:  "secret-job",
				Usage: "Bind secrets owned by another job name",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidRequest,
					"source argument required (directory, GitHub URL, Dockerfile, or image)")
			}

			command := args[1:]
			if len(command) == 0 {
				command = defaultCommand
			}

			opts := runner.RunOptions{
				Source:        args[0],
				Command:       command,
				Replicas:      int32(cmd.Int("num")),
				Timeout:       cmd.String("timeout"),
				BaseImage:     cmd.String("base-image"),
				NameOverride:  cmd.String("job-name"),
				Detach:        cmd.Bool("detach"),
				ManifestOnly:  cmd.Bool("show-yaml"),
				AsDeployment:  cmd.Bool("as-deployment"),
				Follow:        cmd.Bool("follow"),
				Replace:       cmd.Bool("rm"),
				CPU:           cmd.String("cpu"),
				Memory:        cmd.String("mem"),
				SecretJobName: cmd.String("secret-job"),
			}
			if cmd.IsSet("retry") {
				opts.RetryLimit = ptr.To(int32(cmd.Int("retry")))
			}

			r, err := newRunner(cmd)
			if err != nil {
				return err
			}

			result, err := r.Run(ctx, opts)
			if err != nil {
				return err
			}

			// Detached runs, deployments, and manifests have no verdict.
			if result.Kind == workload.KindJob && result.Outcome != "" && result.Outcome != runner.OutcomeSucceeded {
				return fmt.Errorf("job %q %s (%s)", result.Name, result.Outcome, result.State)
			}
			return nil
		},
	}
}
