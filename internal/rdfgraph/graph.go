// Package rdfgraph parses resource descriptions into an in-memory triple set
// with the few lookups the importer needs.
package rdfgraph

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
)

// Supported description languages, by media type.
const (
	Turtle   = "text/turtle"
	NTriples = "application/n-triples"
	RDFXML   = "application/rdf+xml"
)

var (
	// ErrUnsupportedLanguage is returned for media types without a decoder.
	ErrUnsupportedLanguage = errors.New("unsupported RDF language")

	// ErrSyntax is returned when a document does not parse.
	ErrSyntax = errors.New("invalid RDF document")
)

// Well-known IRIs.
const (
	RDFType      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	NonRDFSource = "http://www.w3.org/ns/ldp#NonRDFSource"
	LastModified = "http://fedora.info/definitions/v4/repository#lastModified"
	XSDDateTime  = "http://www.w3.org/2001/XMLSchema#dateTime"
)

func formatFor(lang string) (rdf.Format, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case Turtle, "":
		return rdf.Turtle, nil
	case NTriples, "text/plain":
		return rdf.NTriples, nil
	case RDFXML:
		return rdf.RDFXML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
}

// Option configures Parse.
type Option func(*parseConfig)

type parseConfig struct {
	from, to string
}

// WithRebase rewrites subject and object IRIs starting with from so that
// they start with to instead. Empty or equal prefixes disable rebasing.
func WithRebase(from, to string) Option {
	return func(cfg *parseConfig) {
		cfg.from = from
		cfg.to = to
	}
}

// Graph is a parsed description. It keeps triples in document order.
type Graph struct {
	triples []rdf.Triple
}

// Parse decodes a document in the given language.
func Parse(r io.Reader, lang string, opts ...Option) (*Graph, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	format, err := formatFor(lang)
	if err != nil {
		return nil, err
	}

	dec := rdf.NewTripleDecoder(r, format)
	g := &Graph{}
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		if cfg.from != "" && cfg.from != cfg.to {
			t, err = rebase(t, cfg.from, cfg.to)
			if err != nil {
				return nil, err
			}
		}
		g.triples = append(g.triples, t)
	}
}

func rebase(t rdf.Triple, from, to string) (rdf.Triple, error) {
	if iri, ok := t.Subj.(rdf.IRI); ok {
		mapped, err := rebaseIRI(iri, from, to)
		if err != nil {
			return t, err
		}
		t.Subj = mapped
	}
	if iri, ok := t.Obj.(rdf.IRI); ok {
		mapped, err := rebaseIRI(iri, from, to)
		if err != nil {
			return t, err
		}
		t.Obj = mapped
	}
	return t, nil
}

func rebaseIRI(iri rdf.IRI, from, to string) (rdf.IRI, error) {
	s := iri.String()
	if !strings.HasPrefix(s, from) {
		return iri, nil
	}
	mapped, err := rdf.NewIRI(to + strings.TrimPrefix(s, from))
	if err != nil {
		return iri, fmt.Errorf("%w: rebase %s: %w", ErrSyntax, s, err)
	}
	return mapped, nil
}

// Len reports the number of triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// SubjectsOfType returns the IRI subjects declared with rdf:type typeIRI,
// deduplicated, in document order.
func (g *Graph) SubjectsOfType(typeIRI string) []string {
	var subjects []string
	seen := make(map[string]bool)
	for _, t := range g.triples {
		if t.Pred.String() != RDFType || t.Obj.Type() != rdf.TermIRI || t.Obj.String() != typeIRI {
			continue
		}
		if t.Subj.Type() != rdf.TermIRI {
			continue
		}
		s := t.Subj.String()
		if !seen[s] {
			seen[s] = true
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// Literal returns the lexical form and datatype of the first literal object
// of (subject, predicate).
func (g *Graph) Literal(subject, predicate string) (value, datatype string, ok bool) {
	for _, t := range g.triples {
		if t.Subj.String() != subject || t.Pred.String() != predicate {
			continue
		}
		lit, isLit := t.Obj.(rdf.Literal)
		if !isLit {
			continue
		}
		return lit.String(), lit.DataType.String(), true
	}
	return "", "", false
}
