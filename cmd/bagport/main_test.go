package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bagport/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func description(subject, modified string) string {
	doc := "@prefix fedora: <http://fedora.info/definitions/v4/repository#> .\n" +
		"<" + subject + "> <http://purl.org/dc/terms/title> \"t\" .\n"
	if modified != "" {
		doc += "<" + subject + "> fedora:lastModified \"" + modified +
			"\"^^<http://www.w3.org/2001/XMLSchema#dateTime> .\n"
	}
	return doc
}

func exportDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "export")
	testutil.WriteTree(t, dir, map[string]string{
		"data/localhost%3A8080/rest/a.ttl": description("http://localhost:8080/rest/a", "2022-01-01T00:00:00Z"),
		"data/localhost%3A8080/rest/b.ttl": description("http://localhost:8080/rest/b", "2020-01-01T00:00:00Z"),
	})
	return dir
}

func TestPackInspectUnpack(t *testing.T) {
	dir := exportDir(t)

	out, err := run(t, "pack", dir, "--format", "zip", "--info", "Source-Organization: Example")
	require.NoError(t, err)
	archivePath := strings.TrimSpace(out)
	assert.Equal(t, dir+".zip", archivePath)

	out, err = run(t, "inspect", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "export/bagit.txt")
	assert.Contains(t, out, "export/manifest-sha256.txt")

	received := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, os.Rename(archivePath, received))

	out, err = run(t, "unpack", received, "--sequence",
		"--config", writeConfig(t, "source: http://localhost:8080/rest\ndestination: https://repo.example.org/rest\n"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		strings.TrimSuffix(received, ".zip"),
		"https://repo.example.org/rest/b",
		"https://repo.example.org/rest/a",
	}, lines)

	info, err := os.ReadFile(filepath.Join(strings.TrimSuffix(received, ".zip"), "bag-info.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "Source-Organization: Example\n")
}

func TestValidate(t *testing.T) {
	dir := exportDir(t)
	_, err := run(t, "pack", dir, "--format", "directory")
	require.NoError(t, err)

	profilePath := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
Bag-Info:
  Contact-Name:
    required: true
Manifests-Required: [sha512]
`), 0o644))

	out, err := run(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = run(t, "validate", dir, "--profile", profilePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Contact-Name" is a required field.`)
	assert.Contains(t, err.Error(), `"manifest-sha512.txt" is a required manifest.`)
}

func TestSequence(t *testing.T) {
	dir := exportDir(t)
	out, err := run(t, "sequence", filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/rest/b\nhttp://localhost:8080/rest/a\n", out)
}

func TestSerializeDeserialize(t *testing.T) {
	dir := exportDir(t)
	out, err := run(t, "serialize", dir, "-f", "tar.bz2")
	require.NoError(t, err)
	archivePath := strings.TrimSpace(out)
	assert.Equal(t, dir+".tar.bz2", archivePath)

	received := filepath.Join(t.TempDir(), "export.tar.bz2")
	require.NoError(t, os.Rename(archivePath, received))
	out, err = run(t, "deserialize", received)
	require.NoError(t, err)
	target := strings.TrimSpace(out)
	assert.Equal(t, testutil.ReadTree(t, dir), testutil.ReadTree(t, target))
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "pack", exportDir(t), "--format", "rar")
	require.Error(t, err)

	_, err = run(t, "pack", exportDir(t), "--config", writeConfig(t, "format: rar\n"))
	require.Error(t, err)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bagport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
