/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/runner"
)

func lsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "ls",
		EnableShellCompletion: true,
		Usage:                 "List k8r workloads in the namespace",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			rows, err := r.List(ctx)
			if err != nil {
				return err
			}
			return runner.PrintTable(os.Stdout, rows)
		},
	}
}

func logsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "logs",
		EnableShellCompletion: true,
		Usage:                 "Print the logs of a workload's pods",
		ArgsUsage:             "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Stream logs until the pods finish",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "workload name required")
			}
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			return r.Logs(ctx, name, cmd.Bool("follow"))
		},
	}
}

func rmCmd() *cli.Command {
	return &cli.Command{
		Name:                  "rm",
		EnableShellCompletion: true,
		Usage:                 "Delete a workload, its pods, and its source ConfigMap",
		ArgsUsage:             "NAME",
		Description: `Delete a k8r workload. Secrets owned by the workload are preserved so a
replacement run can reuse them; pass --rm-secrets to delete them too.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Delete even when pods are still running",
			},
			&cli.BoolFlag{
				Name:  "rm-secrets",
				Usage: "Also delete the workload's secrets",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "workload name required")
			}
			r, err := newRunner(cmd)
			if err != nil {
				return err
			}
			return r.Delete(ctx, name, cmd.Bool("force"), cmd.Bool("rm-secrets"))
		},
	}
}
