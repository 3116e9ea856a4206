package naming

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-run/k8r/pkg/source"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "MyProject", "myproject"},
		{"invalid chars", "my_project.v2", "my-project-v2"},
		{"collapse runs", "a---b___c", "a-b-c"},
		{"trim edges", "--hello--", "hello"},
		{"empty", "", "unnamed"},
		{"only invalid", "___", "unnamed"},
		{"already clean", "my-job-1", "my-job-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"MyProject",
		"a__b--c..d",
		strings.Repeat("x", 200),
		strings.Repeat("ab-", 40),
		"--Weird__Name--",
		"",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "sanitize not idempotent for %q", in)
		assert.LessOrEqual(t, len(once), MaxWorkloadName)
	}
}

func TestSanitizeTruncation(t *testing.T) {
	long := strings.Repeat("a", 54) + "-bcd"
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), MaxWorkloadName)
	assert.False(t, strings.HasSuffix(got, "-"), "truncated name must not end with hyphen")
}

func TestDeriveNameOverride(t *testing.T) {
	got, err := DeriveName(source.ContainerImage, "redis:7.0", "My Override")
	require.NoError(t, err)
	assert.Equal(t, "my-override", got)
}

func TestDeriveNameDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My_App")
	require.NoError(t, os.Mkdir(dir, 0o755))

	got, err := DeriveName(source.Directory, dir, "")
	require.NoError(t, err)
	assert.Equal(t, "my-app", got)
}

func TestDeriveNameDirectoryDotUsesOriginalPwd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shell-project")
	require.NoError(t, os.Mkdir(dir, 0o755))
	t.Setenv("K8R_ORIGINAL_PWD", dir)

	got, err := DeriveName(source.Directory, ".", "")
	require.NoError(t, err)
	assert.Equal(t, "shell-project", got)
}

func TestDeriveNameGitHub(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/example/My-Repo.git", "my-repo"},
		{"https://github.com/example/project", "project"},
		{"git@github.com:example/tool.git", "tool"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := DeriveName(source.GitHub, tt.url, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveNameDockerfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Svc_Api")
	require.NoError(t, os.Mkdir(dir, 0o755))
	df := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(df, []byte("FROM alpine"), 0o644))

	got, err := DeriveName(source.Dockerfile, df, "")
	require.NoError(t, err)
	assert.Equal(t, "svc-api", got)
}

func TestDeriveNameContainerImage(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"redis:7.0", "redis"},
		{"redis", "redis"},
		{"ghcr.io/example/app:v1", "app"},
		{"gcr.io/proj/tools/runner@sha256:0000000000000000000000000000000000000000000000000000000000000000", "runner"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := DeriveName(source.ContainerImage, tt.ref, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecretObjectName(t *testing.T) {
	assert.Equal(t, "my-job-api-key", SecretObjectName("my-job", "api-key"))

	// Composed name never exceeds the 63 character ceiling, whatever the
	// owner length.
	owner := strings.Repeat("a", 55)
	got := SecretObjectName(owner, strings.Repeat("b", 40))
	assert.LessOrEqual(t, len(got), 63)
	assert.Contains(t, got, "-")
}

func TestSecretVolumeName(t *testing.T) {
	got := SecretVolumeName(strings.Repeat("k", 80))
	assert.True(t, strings.HasPrefix(got, "secret-"))
	assert.LessOrEqual(t, len(got), 63)
}

func TestWorkloadLabels(t *testing.T) {
	labels := WorkloadLabels("my-job", source.Directory, false)
	assert.Equal(t, map[string]string{
		"created-by":      "k8r",
		"k8r-job":         "my-job",
		"k8r-source-type": "directory",
	}, labels)

	labels = WorkloadLabels("my-dep", source.ContainerImage, true)
	assert.Equal(t, "deployment", labels["k8r-type"])
	assert.Equal(t, "container", labels["k8r-source-type"])
}

func TestSelectors(t *testing.T) {
	assert.Equal(t, "created-by=k8r,k8r-job=x", JobPodSelector("x"))
	assert.Equal(t, "created-by=k8r,k8r-deployment=x", DeploymentPodSelector("x"))
	assert.Equal(t, "created-by=k8r,k8r-job=x", SecretSelector("x"))
	assert.Equal(t, "created-by=k8r", OwnedSelector())
}
