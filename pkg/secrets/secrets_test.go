package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestBuildFromString(t *testing.T) {
	s, err := Build("default", "my-job", "api-key", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "my-job-api-key", s.Name)
	assert.Equal(t, "default", s.Namespace)
	assert.Equal(t, map[string][]byte{"api-key": []byte("s3cret")}, s.Data)
	assert.Equal(t, "k8r", s.Labels["created-by"])
	assert.Equal(t, "my-job", s.Labels["k8r-job"])
	assert.Equal(t, "api-key", s.Labels["k8r-secret"])
}

func TestBuildFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("binary\x00data"), 0o600))

	s, err := Build("default", "my-job", "token", path)
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{"token": []byte("binary\x00data")}, s.Data)
}

func TestBuildFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pem"), []byte("cert"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys", "id_rsa"), []byte("key"), 0o600))

	s, err := Build("default", "my-job", "certs", dir)
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"cert.pem":    []byte("cert"),
		"keys_id_rsa": []byte("key"),
	}, s.Data)
}

func TestApplyCreatesAndReplaces(t *testing.T) {
	client := fake.NewClientset()
	m := NewManager(client, "default")
	ctx := t.Context()

	s, err := Build("default", "my-job", "api-key", "v1")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, s))

	// Second apply with a new value replaces the stored secret.
	s2, err := Build("default", "my-job", "api-key", "v2")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, s2))

	stored, err := client.CoreV1().Secrets("default").Get(ctx, "my-job-api-key", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), stored.Data["api-key"])
}

func TestDeleteForJob(t *testing.T) {
	client := fake.NewClientset()
	m := NewManager(client, "default")
	ctx := t.Context()

	for _, name := range []string{"api-key", "db-pass"} {
		s, err := Build("default", "my-job", name, "value")
		require.NoError(t, err)
		require.NoError(t, m.Apply(ctx, s))
	}
	other, err := Build("default", "other-job", "api-key", "value")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, other))

	deleted, err := m.DeleteForJob(ctx, "my-job")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := client.CoreV1().Secrets("default").List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	require.Len(t, remaining.Items, 1)
	assert.Equal(t, "other-job-api-key", remaining.Items[0].Name)
}
