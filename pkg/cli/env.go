/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// shellFunction wraps the binary so that workload names derived from "." use
// the directory the user invoked k8r from, not the binary's working
// directory.
const shellFunction = `k8r() {
    K8R_ORIGINAL_PWD="$(pwd)" command k8r "$@"
}
`

func envCmd() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Print the shell integration function",
		Description: `Print a shell function that exports the invocation directory before
running k8r. Add it to your shell profile:

  eval "$(k8r env)"`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprint(os.Stdout, shellFunction)
			return err
		},
	}
}
