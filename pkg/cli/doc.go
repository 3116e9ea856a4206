// Package cli implements the command-line interface for k8r.
//
// # Overview
//
// k8r runs arbitrary sources on a Kubernetes cluster. A source is classified
// automatically: an existing directory is archived and shipped to the pod via
// ConfigMap, a Dockerfile is built and pushed with the docker CLI, a
// github.com URL is cloned inside the pod, and anything else is treated as a
// container image reference.
//
// # Commands
//
// run - Run a source (implied when the first argument is not a command):
//
//	k8r . python main.py
//	k8r run alpine:latest echo hello --num 3 --timeout 30m
//
// ls - List k8r workloads in the namespace:
//
//	k8r ls
//
// logs - Print or follow pod logs:
//
//	k8r logs my-app -f
//
// rm - Delete a workload and its source ConfigMap:
//
//	k8r rm my-app [--force] [--rm-secrets]
//
// secret - Store a secret bound into future runs of a workload:
//
//	k8r secret api-key "s3cr3t" --job-name my-app
//
// env - Print the shell integration function:
//
//	eval "$(k8r env)"
//
// # Global Flags
//
//	--namespace     Kubernetes namespace (K8R_NAMESPACE)
//	--kubeconfig    Path to the kubeconfig file (KUBECONFIG)
//
// # Environment Variables
//
//	LOG_LEVEL      Set logging verbosity (debug, info, warn, error)
//	K8R_NAMESPACE  Default namespace
//	K8R_REGISTRY   Registry for Dockerfile builds (default: gcr.io)
//	K8R_PROJECT    Registry project for Dockerfile builds
//
// # Exit Codes
//
//	0  Success
//	1  General error, failed job, or timeout
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/k8s-run/k8r/pkg/cli.version=1.0.0'"
package cli
