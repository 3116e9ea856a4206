/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/k8s-run/k8r/pkg/build"
	"github.com/k8s-run/k8r/pkg/k8s"
	"github.com/k8s-run/k8r/pkg/logging"
	"github.com/k8s-run/k8r/pkg/runner"
)

const (
	name           = "k8r"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd assembles the full command tree.
func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Run anything on Kubernetes",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `k8r turns a source - a local directory, a GitHub URL, a Dockerfile,
or a container image - into a running Kubernetes Job or Deployment.

  k8r . python main.py                run the current directory
  k8r https://github.com/org/repo     run a GitHub repository
  k8r ./Dockerfile                    build, push, and run a Dockerfile
  k8r alpine:latest echo hello        run a container image

A bare source argument implies the run command.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "Kubernetes namespace (defaults to the kubeconfig context namespace)",
				Sources: cli.EnvVars("K8R_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "kubeconfig",
				Usage:   "Path to the kubeconfig file",
				Sources: cli.EnvVars("KUBECONFIG"),
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			lsCmd(),
			logsCmd(),
			rmCmd(),
			secretCmd(),
			envCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	logging.SetDefaultStructuredLogger(name, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, normalizeArgs(os.Args)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// normalizeArgs inserts the implicit run command when the first argument is a
// source reference rather than a known command or flag.
func normalizeArgs(args []string) []string {
	if len(args) < 2 {
		return args
	}
	first := args[1]
	if first == "" || first[0] == '-' || knownCommands[first] {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], "run")
	return append(out, args[1:]...)
}

var knownCommands = map[string]bool{
	"run":     true,
	"ls":      true,
	"logs":    true,
	"rm":      true,
	"secret":  true,
	"env":     true,
	"help":    true,
	"h":       true,
	"version": true,
}

// newRunner builds the lifecycle runner from the global flags.
func newRunner(cmd *cli.Command) (*runner.Runner, error) {
	client, err := k8s.NewClient(cmd.String("kubeconfig"))
	if err != nil {
		return nil, err
	}
	namespace := k8s.ResolveNamespace(cmd.String("namespace"), cmd.String("kubeconfig"))
	return runner.New(client, namespace, build.NewDockerCLI(), os.Stdout), nil
}
