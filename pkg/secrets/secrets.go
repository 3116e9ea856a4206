/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package secrets manages k8r-owned Secrets and binds them into pods. A
// secret has a user-chosen logical name and a cluster-stored name prefixed
// with its owning job; discovery goes through the shared label vocabulary,
// never through the stored name.
package secrets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
)

// Manager performs secret CRUD against one namespace.
type Manager struct {
	client    kubernetes.Interface
	namespace string
}

// NewManager creates a Manager bound to the given client and namespace.
func NewManager(client kubernetes.Interface, namespace string) *Manager {
	return &Manager{client: client, namespace: namespace}
}

// Build constructs the Secret object for a logical name and value without
// touching the cluster. The value is interpreted as a file path, a directory
// path, or a literal string, in that order. Directory values produce one key
// per file with path separators replaced by underscores.
func Build(namespace, ownerJob, logicalName, value string) (*corev1.Secret, error) {
	data, err := buildData(logicalName, value)
	if err != nil {
		return nil, err
	}

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.SecretObjectName(ownerJob, logicalName),
			Namespace: namespace,
			Labels:    naming.SecretLabels(ownerJob, logicalName),
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}, nil
}

func buildData(logicalName, value string) (map[string][]byte, error) {
	fi, err := os.Stat(value)
	switch {
	case err == nil && fi.Mode().IsRegular():
		content, err := os.ReadFile(value)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("reading secret file %q", value), err)
		}
		return map[string][]byte{logicalName: content}, nil

	case err == nil && fi.IsDir():
		data := map[string][]byte{}
		walkErr := filepath.WalkDir(value, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.Type().IsRegular() {
				return err
			}
			rel, err := filepath.Rel(value, path)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			key := strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
			data[key] = content
			return nil
		})
		if walkErr != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("reading secret directory %q", value), walkErr)
		}
		return data, nil

	default:
		return map[string][]byte{logicalName: []byte(value)}, nil
	}
}

// Apply creates the secret, replacing an existing one with the same name.
func (m *Manager) Apply(ctx context.Context, secret *corev1.Secret) error {
	_, err := m.client.CoreV1().Secrets(m.namespace).Create(ctx, secret, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = m.client.CoreV1().Secrets(m.namespace).Update(ctx, secret, metav1.UpdateOptions{})
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeApplyFailed,
			fmt.Sprintf("applying secret %q", secret.Name), err)
	}
	return nil
}

// ListForJob returns every k8r secret owned by the given job name.
func (m *Manager) ListForJob(ctx context.Context, jobName string) ([]corev1.Secret, error) {
	list, err := m.client.CoreV1().Secrets(m.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: naming.SecretSelector(jobName),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("listing secrets for job %q", jobName), err)
	}
	return list.Items, nil
}

// DeleteForJob removes every k8r secret owned by the given job name and
// returns how many were deleted. Already-gone secrets count as deleted.
func (m *Manager) DeleteForJob(ctx context.Context, jobName string) (int, error) {
	items, err := m.ListForJob(ctx, jobName)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, s := range items {
		err := m.client.CoreV1().Secrets(m.namespace).Delete(ctx, s.Name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return deleted, errors.Wrap(errors.ErrCodeInternal,
				fmt.Sprintf("deleting secret %q", s.Name), err)
		}
		deleted++
	}
	return deleted, nil
}
