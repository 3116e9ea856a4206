/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "bare source implies run",
			args: []string{"k8r", "alpine:latest", "echo", "hello"},
			want: []string{"k8r", "run", "alpine:latest", "echo", "hello"},
		},
		{
			name: "dot source implies run",
			args: []string{"k8r", ".", "python", "main.py"},
			want: []string{"k8r", "run", ".", "python", "main.py"},
		},
		{
			name: "known command passes through",
			args: []string{"k8r", "ls"},
			want: []string{"k8r", "ls"},
		},
		{
			name: "rm is a command not a source",
			args: []string{"k8r", "rm", "my-app"},
			want: []string{"k8r", "rm", "my-app"},
		},
		{
			name: "flag passes through",
			args: []string{"k8r", "--help"},
			want: []string{"k8r", "--help"},
		},
		{
			name: "no args",
			args: []string{"k8r"},
			want: []string{"k8r"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.args))
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	assert.Equal(t, "k8r", root.Name)

	var names []string
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	for _, want := range []string{"run", "ls", "logs", "rm", "secret", "env"} {
		assert.Contains(t, names, want)
	}

	// Every subcommand name must be recognized by the implicit-run rewrite,
	// otherwise it would be swallowed as a source argument.
	for _, c := range root.Commands {
		assert.True(t, knownCommands[c.Name], "command %q missing from knownCommands", c.Name)
	}
}

func findFlag(t *testing.T, cmd *cli.Command, name string) cli.Flag {
	t.Helper()
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return f
			}
		}
	}
	t.Fatalf("flag %q not found on %q", name, cmd.Name)
	return nil
}

func TestRunCommandFlags(t *testing.T) {
	run := runCmd()

	for _, name := range []string{
		"num", "timeout", "base-image", "job-name", "detach", "show-yaml",
		"as-deployment", "retry", "follow", "rm", "mem", "cpu", "secret-job",
	} {
		findFlag(t, run, name)
	}

	num, ok := findFlag(t, run, "num").(*cli.IntFlag)
	require.True(t, ok)
	assert.EqualValues(t, 1, num.Value)

	timeout, ok := findFlag(t, run, "timeout").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "1h", timeout.Value)

	baseImage, ok := findFlag(t, run, "base-image").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "alpine:latest", baseImage.Value)
}

func TestRmCommandFlags(t *testing.T) {
	rm := rmCmd()
	findFlag(t, rm, "force")
	findFlag(t, rm, "rm-secrets")
}

func TestSecretCommandFlags(t *testing.T) {
	secret := secretCmd()
	findFlag(t, secret, "job-name")
	findFlag(t, secret, "show-yaml")
}
