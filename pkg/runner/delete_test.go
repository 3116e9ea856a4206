/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/k8s-run/k8r/pkg/errors"
	"github.com/k8s-run/k8r/pkg/naming"
)

func ownedSecret(jobName, logicalName string) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.SecretObjectName(jobName, logicalName),
			Namespace: testNamespace,
			Labels:    naming.SecretLabels(jobName, logicalName),
		},
		Data: map[string][]byte{logicalName: []byte("value")},
	}
}

func ownedConfigMap(jobName string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.SourceConfigMapName(jobName),
			Namespace: testNamespace,
		},
	}
}

func TestDeleteRemovesJobAndSourceConfigMap(t *testing.T) {
	client := fake.NewClientset(makeJob("demo"), ownedConfigMap("demo"))

	r, _, _ := newTestRunner(client)
	require.NoError(t, r.Delete(t.Context(), "demo", false, false))

	_, err := client.BatchV1().Jobs(testNamespace).Get(t.Context(), "demo", metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))

	_, err = client.CoreV1().ConfigMaps(testNamespace).Get(t.Context(), "demo-source", metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))
}

func TestDeletePreservesSecretsByDefault(t *testing.T) {
	client := fake.NewClientset(makeJob("demo"), ownedSecret("demo", "api-key"))

	r, _, _ := newTestRunner(client)
	require.NoError(t, r.Delete(t.Context(), "demo", false, false))

	secrets, err := client.CoreV1().Secrets(testNamespace).List(t.Context(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, secrets.Items, 1)
}

func TestDeleteCascadesSecretsWhenAsked(t *testing.T) {
	client := fake.NewClientset(makeJob("demo"), ownedSecret("demo", "api-key"))

	r, _, _ := newTestRunner(client)
	require.NoError(t, r.Delete(t.Context(), "demo", false, true))

	secrets, err := client.CoreV1().Secrets(testNamespace).List(t.Context(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, secrets.Items)
}

func TestDeleteRefusesLivePodsWithoutForce(t *testing.T) {
	client := fake.NewClientset(
		makeJob("demo"),
		makePod("demo-0", "demo", corev1.PodRunning),
	)

	r, _, _ := newTestRunner(client)
	err := r.Delete(t.Context(), "demo", false, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	require.NoError(t, r.Delete(t.Context(), "demo", true, false))
	_, err = client.BatchV1().Jobs(testNamespace).Get(t.Context(), "demo", metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))
}

func TestDeleteUnknownWorkload(t *testing.T) {
	client := fake.NewClientset()

	r, _, _ := newTestRunner(client)
	err := r.Delete(t.Context(), "ghost", false, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestDeleteRefusesForeignWorkload(t *testing.T) {
	job := makeJob("foreign")
	job.Labels = map[string]string{"app": "foreign"}
	client := fake.NewClientset(job)

	r, _, _ := newTestRunner(client)
	err := r.Delete(t.Context(), "foreign", true, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}
