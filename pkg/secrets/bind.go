/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package secrets

import (
	"context"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/k8s-run/k8r/pkg/naming"
)

// secretMountRoot is where bound secrets appear as files, one directory per
// logical name with one file per key.
const secretMountRoot = "/k8r/secret/"

// Binding describes one discovered secret to be bound into a pod.
type Binding struct {
	// StoredName is the cluster object name.
	StoredName string
	// LogicalName is the user-chosen name from the k8r-secret label.
	LogicalName string
	// Keys are the secret's data keys, sorted for deterministic output.
	Keys []string
}

// Discover lists the secrets owned by jobName and returns their bindings in
// a stable order. Finding no secrets is not an error; the pod is simply
// built without bindings.
func (m *Manager) Discover(ctx context.Context, jobName string) ([]Binding, error) {
	items, err := m.ListForJob(ctx, jobName)
	if err != nil {
		return nil, err
	}

	bindings := make([]Binding, 0, len(items))
	for _, s := range items {
		keys := make([]string, 0, len(s.Data))
		for k := range s.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		bindings = append(bindings, Binding{
			StoredName:  s.Name,
			LogicalName: s.Labels[naming.LabelSecret],
			Keys:        keys,
		})
	}

	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].StoredName < bindings[j].StoredName
	})
	return bindings, nil
}

// Bind injects the discovered secrets into a pod spec: one environment
// variable per key, named {LOGICAL_NAME}_{KEY}, and one read-only volume per
// secret mounted at /k8r/secret/{logical-name}/ with one file per key. The
// main container is the pod's first container.
func Bind(podSpec *corev1.PodSpec, bindings []Binding) {
	if len(bindings) == 0 || len(podSpec.Containers) == 0 {
		return
	}
	main := &podSpec.Containers[0]

	for _, b := range bindings {
		volumeName := naming.SecretVolumeName(b.LogicalName)

		podSpec.Volumes = append(podSpec.Volumes, corev1.Volume{
			Name: volumeName,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: b.StoredName,
				},
			},
		})

		main.VolumeMounts = append(main.VolumeMounts, corev1.VolumeMount{
			Name:      volumeName,
			MountPath: secretMountRoot + b.LogicalName + "/",
			ReadOnly:  true,
		})

		for _, key := range b.Keys {
			main.Env = append(main.Env, corev1.EnvVar{
				Name: EnvVarName(b.LogicalName, key),
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{
							Name: b.StoredName,
						},
						Key: key,
					},
				},
			})
		}
	}
}

// EnvVarName composes the environment variable name for a secret key:
// {LOGICAL_NAME}_{KEY}, fully uppercased with every non-alphanumeric
// character replaced by an underscore.
func EnvVarName(logicalName, key string) string {
	return mangle(logicalName) + "_" + mangle(key)
}

func mangle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
