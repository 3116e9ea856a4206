/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	corev1 "k8s.io/api/core/v1"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/k8s"
	"github.com/k8s-run/k8r/pkg/manifest"
	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/secrets"
	"github.com/k8s-run/k8r/pkg/source"
)

var secretGVK = corev1.SchemeGroupVersion.WithKind("Secret")

func secretCmd() *cli.Command {
	return &cli.Command{
		Name:                  "secret",
		EnableShellCompletion: true,
		Usage:                 "Create or update a secret for a workload",
		ArgsUsage:             "NAME VALUE",
		Description: `Store a secret under a logical name, owned by a workload. The value is
interpreted as a file path, a directory path, or a literal string, in that
order. Directory values produce one key per file.

The secret is bound automatically the next time the owning workload runs:
each key becomes an environment variable named {NAME}_{KEY} and a file
under /k8r/secret/{name}/.

The owning workload defaults to the name derived from the current
directory; pass --job-name to target another workload.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "job-name",
				Usage: "Workload that owns the secret",
			},
			&cli.BoolFlag{
				Name:  "show-yaml",
				Usage: "Print the Secret manifest to stdout instead of applying it",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 2 {
				return errors.New(errors.ErrCodeInvalidRequest, "secret requires NAME and VALUE arguments")
			}
			logicalName, value := args[0], args[1]

			ownerJob := cmd.String("job-name")
			if ownerJob == "" {
				derived, err := naming.DeriveName(source.Directory, ".", "")
				if err != nil {
					return err
				}
				ownerJob = derived
			}

			namespace := k8s.ResolveNamespace(cmd.String("namespace"), cmd.String("kubeconfig"))

			secret, err := secrets.Build(namespace, ownerJob, logicalName, value)
			if err != nil {
				return err
			}

			if cmd.Bool("show-yaml") {
				return manifest.Fprint(os.Stdout, secret, secretGVK)
			}

			client, err := k8s.NewClient(cmd.String("kubeconfig"))
			if err != nil {
				return err
			}
			if err := secrets.NewManager(client, namespace).Apply(ctx, secret); err != nil {
				return err
			}
			slog.Info("secret stored", "name", secret.Name, "job", ownerJob, "keys", len(secret.Data))
			return nil
		},
	}
}
