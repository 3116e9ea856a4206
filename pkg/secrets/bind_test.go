package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func podSpecWithRunner() corev1.PodSpec {
	return corev1.PodSpec{
		Containers: []corev1.Container{{Name: "runner", Image: "alpine:latest"}},
	}
}

func TestDiscoverAndBind(t *testing.T) {
	client := fake.NewClientset()
	m := NewManager(client, "default")
	ctx := t.Context()

	apiKey, err := Build("default", "my-job", "api-key", "secret-value")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, apiKey))

	dbCreds := mustBuild(t, "my-job", "db")
	dbCreds.Data = map[string][]byte{"user": []byte("u"), "pass.txt": []byte("p")}
	require.NoError(t, m.Apply(ctx, dbCreds))

	bindings, err := m.Discover(ctx, "my-job")
	require.NoError(t, err)
	require.Len(t, bindings, 2)

	podSpec := podSpecWithRunner()
	Bind(&podSpec, bindings)

	c := podSpec.Containers[0]

	// One env var per key across both secrets.
	envNames := make([]string, 0, len(c.Env))
	for _, e := range c.Env {
		envNames = append(envNames, e.Name)
	}
	assert.ElementsMatch(t, []string{"API_KEY_API_KEY", "DB_PASS_TXT", "DB_USER"}, envNames)

	// One volume and one mount per secret.
	require.Len(t, podSpec.Volumes, 2)
	require.Len(t, c.VolumeMounts, 2)

	mounts := map[string]string{}
	for _, vm := range c.VolumeMounts {
		mounts[vm.Name] = vm.MountPath
		assert.True(t, vm.ReadOnly)
	}
	assert.Equal(t, "/k8r/secret/api-key/", mounts["secret-api-key"])
	assert.Equal(t, "/k8r/secret/db/", mounts["secret-db"])
}

func TestDiscoverNoSecretsIsNoop(t *testing.T) {
	client := fake.NewClientset()
	m := NewManager(client, "default")

	bindings, err := m.Discover(t.Context(), "my-job")
	require.NoError(t, err)
	assert.Empty(t, bindings)

	podSpec := podSpecWithRunner()
	Bind(&podSpec, bindings)
	assert.Empty(t, podSpec.Volumes)
	assert.Empty(t, podSpec.Containers[0].Env)
}

func TestDiscoverScopedByJobName(t *testing.T) {
	client := fake.NewClientset()
	m := NewManager(client, "default")
	ctx := t.Context()

	shared, err := Build("default", "shared-job", "token", "v")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, shared))

	// Discovery against the sharing job name finds it; the workload's own
	// name does not.
	bindings, err := m.Discover(ctx, "shared-job")
	require.NoError(t, err)
	assert.Len(t, bindings, 1)

	bindings, err = m.Discover(ctx, "my-job")
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestEnvVarName(t *testing.T) {
	tests := []struct {
		logical string
		key     string
		want    string
	}{
		{"api-key", "api-key", "API_KEY_API_KEY"},
		{"db", "pass.txt", "DB_PASS_TXT"},
		{"certs", "keys_id_rsa", "CERTS_KEYS_ID_RSA"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EnvVarName(tt.logical, tt.key))
	}
}

func mustBuild(t *testing.T, ownerJob, logical string) *corev1.Secret {
	t.Helper()
	s, err := Build("default", ownerJob, logical, "placeholder")
	require.NoError(t, err)
	return s
}
