/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package k8s builds the cluster client handle and resolves the target
// namespace. The handle is constructed once per invocation and passed
// explicitly into every component; there is no process-wide client state.
package k8s

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// envNamespace overrides the kubeconfig context namespace.
const envNamespace = "K8R_NAMESPACE"

// NewClient creates a Kubernetes client from the given kubeconfig file. If
// kubeconfig is empty, it falls back to the KUBECONFIG environment variable,
// then the default kubeconfig in the user's home directory, then in-cluster
// configuration.
func NewClient(kubeconfig string) (kubernetes.Interface, error) {
	path := resolveKubeconfigPath(kubeconfig)

	config, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		// BuildConfigFromFlags with an empty path already tries the
		// in-cluster config; a second attempt only helps when a stale path
		// was resolved.
		if config, err = rest.InClusterConfig(); err != nil {
			return nil, fmt.Errorf("failed to build kube config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, nil
}

// ResolveNamespace resolves the target namespace: explicit override, then
// the K8R_NAMESPACE environment variable, then the kubeconfig active-context
// namespace, then the literal "default".
func ResolveNamespace(explicit, kubeconfig string) string {
	if explicit != "" {
		return explicit
	}
	if ns := os.Getenv(envNamespace); ns != "" {
		return ns
	}
	if ns := contextNamespace(kubeconfig); ns != "" {
		return ns
	}
	return "default"
}

func contextNamespace(kubeconfig string) string {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})

	ns, _, err := config.Namespace()
	if err != nil {
		return ""
	}
	return ns
}

func resolveKubeconfigPath(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	path := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ""
	}
	return path
}
