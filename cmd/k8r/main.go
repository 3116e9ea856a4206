/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"github.com/k8s-run/k8r/pkg/cli"
)

func main() {
	cli.Execute()
}
