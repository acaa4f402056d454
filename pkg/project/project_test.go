package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftgen/weft/pkg/project"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weft.yaml")
	contents := `
generatedNamespace: My.Generated
templatePath: templates/test.mustache
utilityImport: My.Utils
defaultTestBase:
  simpleName: BaseTest
  namespace: My.Base
  fullName: My.Base.BaseTest
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	meta, err := project.Load(path)
	require.NoError(t, err)
	require.Equal(t, "My.Generated", meta.GeneratedNamespace)
	require.Equal(t, "templates/test.mustache", meta.TemplatePath)
	require.Equal(t, "My.Utils", meta.UtilityImport)
	require.Equal(t, "BaseTest", meta.DefaultTestBase.SimpleName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := project.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDetectGeneratedNamespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/myproj\n\ngo 1.25\n"), 0o644))

	sub := filepath.Join(dir, "features")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	ns, err := project.DetectGeneratedNamespace(sub)
	require.NoError(t, err)
	require.Equal(t, "example.com/myproj/generated", ns)
}
