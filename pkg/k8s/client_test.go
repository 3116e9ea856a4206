package k8s

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kubeconfigWithNamespace = `apiVersion: v1
kind: Config
current-context: test
contexts:
- name: test
  context:
    cluster: test
    user: test
    namespace: team-a
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
users:
- name: test
  user: {}
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(kubeconfigWithNamespace), 0o600))
	return path
}

func TestResolveNamespaceExplicitWins(t *testing.T) {
	path := writeKubeconfig(t)
	t.Setenv("K8R_NAMESPACE", "from-env")

	assert.Equal(t, "explicit", ResolveNamespace("explicit", path))
}

func TestResolveNamespaceEnvBeatsContext(t *testing.T) {
	path := writeKubeconfig(t)
	t.Setenv("K8R_NAMESPACE", "from-env")

	assert.Equal(t, "from-env", ResolveNamespace("", path))
}

func TestResolveNamespaceContextDefault(t *testing.T) {
	path := writeKubeconfig(t)
	t.Setenv("K8R_NAMESPACE", "")

	assert.Equal(t, "team-a", ResolveNamespace("", path))
}

func TestResolveNamespaceLiteralFallback(t *testing.T) {
	t.Setenv("K8R_NAMESPACE", "")

	got := ResolveNamespace("", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, "default", got)
}

func TestNewClientFromKubeconfig(t *testing.T) {
	client, err := NewClient(writeKubeconfig(t))
	require.NoError(t, err)
	assert.NotNil(t, client)
}
