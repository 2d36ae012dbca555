package profile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bagport/profile"
)

const yamlProfile = `
BagIt-Profile-Info:
  BagIt-Profile-Identifier: https://example.org/profiles/default.json
  Source-Organization: Example
Bag-Info:
  Source-Organization:
    required: true
  Rights:
    recommended: true
  Access:
    values: [Public, Restricted]
Aptrust-Info:
  Title:
    required: true
Manifests-Required: [sha256]
Tag-Files-Required: [aptrust-info.txt]
Accept-Serialization: [application/x-tar]
Accept-BagIt-Version: ["1.0"]
Serialization: optional
Allow-Fetch.txt: false
`

const jsonProfile = `{
  "BagIt-Profile-Info": {"BagIt-Profile-Identifier": "urn:profile:json"},
  "Bag-Info": {"Contact-Email": {"required": true}},
  "Manifests-Required": ["sha512"]
}`

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	p, err := profile.Load(strings.NewReader(yamlProfile))
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/profiles/default.json", p.Identifier)
	assert.Equal(t, []string{"Aptrust-Info", "Bag-Info"}, p.SectionNames())
	assert.Equal(t, []string{"sha256"}, p.ManifestsRequired)
	assert.Equal(t, []string{"aptrust-info.txt"}, p.TagFilesRequired)
	assert.Equal(t, []string{"application/x-tar"}, p.AcceptSerialization)
	assert.Equal(t, []string{"1.0"}, p.AcceptBagItVersion)
	assert.Equal(t, profile.SerializationOptional, p.Serialization)
	assert.False(t, p.AllowFetch)

	info := p.Sections["Bag-Info"]
	assert.Equal(t, []string{"Access", "Rights", "Source-Organization"}, info.FieldNames())
	assert.True(t, info["Source-Organization"].Required)
	assert.True(t, info["Rights"].Recommended)
	assert.Equal(t, []string{"Public", "Restricted"}, info["Access"].Values)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	p, err := profile.Load(strings.NewReader(jsonProfile))
	require.NoError(t, err)
	assert.Equal(t, "urn:profile:json", p.Identifier)
	assert.Equal(t, []string{"sha512"}, p.ManifestsRequired)
	assert.True(t, p.Sections["Bag-Info"]["Contact-Email"].Required)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlProfile), 0o600))

	p, err := profile.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Sections, 2)

	_, err = profile.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "not a mapping", doc: "- a\n- b\n"},
		{name: "bad serialization", doc: "Serialization: sometimes\n"},
		{name: "bad field rule", doc: "Bag-Info:\n  Foo:\n    required: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := profile.Load(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, profile.ErrInvalidProfile)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()

	p, err := profile.Load(strings.NewReader(yamlProfile))
	require.NoError(t, err)

	err = p.Validate(map[string]map[string]string{
		"Bag-Info":     {"Source-Organization": "Example", "Access": "Public"},
		"Aptrust-Info": {"Title": "A bag"},
	})
	require.NoError(t, err)

	err = p.Validate(map[string]map[string]string{
		"Bag-Info": {"Access": "Secret"},
	})
	require.ErrorIs(t, err, profile.ErrValidation)
	msg := err.Error()
	assert.Contains(t, msg, "occurred in the Aptrust-Info:\n\"Title\" is a required field.")
	assert.Contains(t, msg, `"Secret" is not valid for "Access". Valid values: Public,Restricted`)
	assert.Contains(t, msg, `"Source-Organization" is a required field.`)
}
