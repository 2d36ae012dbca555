// Package profile loads BagIt profiles and validates bag metadata against them.
//
// A profile declares, per tag file section (for example "Bag-Info"), which
// fields are required, which are recommended and which values are allowed.
// Profiles are read from YAML or JSON documents in the BagIt-Profiles layout:
//
//	BagIt-Profile-Info:
//	  BagIt-Profile-Identifier: https://example.org/profiles/default.json
//	Bag-Info:
//	  Source-Organization:
//	    required: true
//	  Rights:
//	    recommended: true
//	  Access:
//	    values: [Public, Restricted]
//	Manifests-Required: [sha256]
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is returned when a profile document cannot be parsed.
var ErrInvalidProfile = errors.New("invalid bag profile")

// Well-known top-level keys of a profile document. Any other key holding a
// mapping is a metadata section.
const (
	keyProfileInfo          = "BagIt-Profile-Info"
	keyIdentifier           = "BagIt-Profile-Identifier"
	keyManifestsRequired    = "Manifests-Required"
	keyTagManifestsRequired = "Tag-Manifests-Required"
	keyTagFilesRequired     = "Tag-Files-Required"
	keyAcceptSerialization  = "Accept-Serialization"
	keySerialization        = "Serialization"
	keyAcceptBagItVersion   = "Accept-BagIt-Version"
	keyAllowFetch           = "Allow-Fetch.txt"
)

// Serialization requirements a profile may declare.
const (
	SerializationRequired  = "required"
	SerializationOptional  = "optional"
	SerializationForbidden = "forbidden"
)

// FieldRule constrains one metadata field.
type FieldRule struct {
	Required    bool     `yaml:"required"`
	Recommended bool     `yaml:"recommended"`
	Values      []string `yaml:"values"`
}

// Section maps field names to their rules.
type Section map[string]FieldRule

// FieldNames returns the section's field names in lexical order.
func (s Section) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Profile is a parsed BagIt profile. It is read-only once loaded.
type Profile struct {
	// Identifier is recorded in bag-info.txt as BagIt-Profile-Identifier.
	Identifier string

	// Sections maps tag file section names to their field rules.
	Sections map[string]Section

	ManifestsRequired    []string
	TagManifestsRequired []string
	TagFilesRequired     []string
	AcceptSerialization  []string
	AcceptBagItVersion   []string
	Serialization        string
	AllowFetch           bool
}

// SectionNames returns the metadata section names in lexical order.
func (p *Profile) SectionNames() []string {
	names := make([]string, 0, len(p.Sections))
	for name := range p.Sections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks every section of the profile against the fields read for
// it. fields maps section names to their tag file values; a missing section
// is validated as empty. Failures of all sections are joined.
func (p *Profile) Validate(fields map[string]map[string]string, opts ...ValidateOption) error {
	var errs []error
	for _, name := range p.SectionNames() {
		if err := Validate(name, p.Sections[name], fields[name], opts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadFile reads a profile document from path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Load parses a YAML or JSON profile document.
func Load(r io.Reader) (*Profile, error) {
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidProfile)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	p := &Profile{Sections: make(map[string]Section)}
	for key, node := range doc {
		if err := p.decodeKey(key, &node); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidProfile, key, err)
		}
	}
	return p, nil
}

func (p *Profile) decodeKey(key string, node *yaml.Node) error {
	switch key {
	case keyProfileInfo:
		var info map[string]any
		if err := node.Decode(&info); err != nil {
			return err
		}
		if id, ok := info[keyIdentifier].(string); ok {
			p.Identifier = id
		}
		return nil
	case keyManifestsRequired:
		return node.Decode(&p.ManifestsRequired)
	case keyTagManifestsRequired:
		return node.Decode(&p.TagManifestsRequired)
	case keyTagFilesRequired:
		return node.Decode(&p.TagFilesRequired)
	case keyAcceptSerialization:
		return node.Decode(&p.AcceptSerialization)
	case keyAcceptBagItVersion:
		return node.Decode(&p.AcceptBagItVersion)
	case keySerialization:
		if err := node.Decode(&p.Serialization); err != nil {
			return err
		}
		switch p.Serialization {
		case SerializationRequired, SerializationOptional, SerializationForbidden:
			return nil
		default:
			return fmt.Errorf("unknown serialization requirement %q", p.Serialization)
		}
	case keyAllowFetch:
		return node.Decode(&p.AllowFetch)
	}

	if node.Kind != yaml.MappingNode {
		// Unknown scalar or list keys carry no field rules.
		return nil
	}
	var section Section
	if err := node.Decode(&section); err != nil {
		return err
	}
	p.Sections[key] = section
	return nil
}
