package importer_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bagport/importer"
	"github.com/meigma/bagport/internal/testutil"
)

const (
	sourceURI = "http://localhost:8080/rest"
	destURI   = "https://repo.example.org/rest"
	authority = "localhost%3A8080/rest"
)

// description renders a Turtle description of subject. An empty modified
// value leaves the timestamp out.
func description(subject, modified string, binary bool) string {
	doc := "@prefix fedora: <http://fedora.info/definitions/v4/repository#> .\n" +
		"@prefix ldp: <http://www.w3.org/ns/ldp#> .\n" +
		"@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n"
	doc += fmt.Sprintf("<%s> <http://purl.org/dc/terms/title> \"title\" .\n", subject)
	if binary {
		doc += fmt.Sprintf("<%s> a ldp:NonRDFSource .\n", subject)
	}
	if modified != "" {
		doc += fmt.Sprintf("<%s> fedora:lastModified %q^^xsd:dateTime .\n", subject, modified)
	}
	return doc
}

func exportTree(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	testutil.WriteTree(t, base, map[string]string{
		authority + "/a/child.ttl":            description(sourceURI+"/a/child", "2020-01-01T00:00:00Z", false),
		authority + "/a/fcr%3Aversions.ttl":   "not turtle at all",
		authority + "/a.ttl":                  description(sourceURI+"/a", "2019-06-01T00:00:00.000Z", false),
		authority + "/b.ttl":                  description(sourceURI+"/b", "", false),
		authority + "/bin/fcr%3Ametadata.ttl": description(sourceURI+"/bin", "2019-06-01T00:00:00Z", true),
		authority + "/bin.binary":             "binary content",
		authority + "/c.ttl":                  description(sourceURI+"/c", "", false),
		authority + "/notes.txt":              "ignored",
	})
	return base
}

func exportConfig(base string) importer.Config {
	return importer.Config{
		BaseDir:        base,
		SourceURI:      sourceURI,
		DestinationURI: destURI,
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	base := exportTree(t)
	var indexes []int
	var paths []string
	err := importer.Walk(context.Background(), base, ".ttl", func(index int, path string) error {
		indexes = append(indexes, index)
		rel, err := filepath.Rel(base, path)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes)
	assert.Equal(t, []string{
		authority + "/a/child.ttl",
		authority + "/a.ttl",
		authority + "/b.ttl",
		authority + "/bin/fcr%3Ametadata.ttl",
		authority + "/c.ttl",
	}, paths)
}

func TestWalkErrors(t *testing.T) {
	t.Parallel()

	err := importer.Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), ".ttl",
		func(int, string) error { return nil })
	require.ErrorIs(t, err, importer.ErrIO)

	base := exportTree(t)
	stop := errors.New("stop")
	calls := 0
	err = importer.Walk(context.Background(), base, ".ttl", func(int, string) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.NotErrorIs(t, err, importer.ErrIO)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = importer.Walk(ctx, base, ".ttl", func(int, string) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestSequencerReadFailures(t *testing.T) {
	t.Parallel()

	t.Run("description", func(t *testing.T) {
		t.Parallel()

		base := exportTree(t)
		testutil.MakeUnreadable(t, filepath.Join(base, authority, "c.ttl"))

		_, err := importer.NewSequencer(context.Background(), exportConfig(base))
		require.ErrorIs(t, err, importer.ErrIO)
		assert.NotErrorIs(t, err, importer.ErrMalformedMetadata)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		base := exportTree(t)
		testutil.MakeUnreadable(t, filepath.Join(base, authority, "a"))

		_, err := importer.NewSequencer(context.Background(), exportConfig(base))
		require.ErrorIs(t, err, importer.ErrIO)
	})
}

func TestSequencerOrder(t *testing.T) {
	t.Parallel()

	seq, err := importer.NewSequencer(context.Background(), exportConfig(exportTree(t)))
	require.NoError(t, err)
	assert.Equal(t, 5, seq.Len())

	var got []importer.ResourceID
	for {
		id, err := seq.Next()
		if err != nil {
			require.ErrorIs(t, err, importer.ErrExhausted)
			break
		}
		got = append(got, id)
	}

	assert.Equal(t, []importer.ResourceID{
		destURI + "/b",
		destURI + "/c",
		destURI + "/a",
		destURI + "/bin",
		destURI + "/a/child",
	}, got)
	assert.Zero(t, seq.Len())

	_, err = seq.Next()
	require.ErrorIs(t, err, importer.ErrExhausted)
}

func TestSequencerAll(t *testing.T) {
	t.Parallel()

	seq, err := importer.NewSequencer(context.Background(), exportConfig(exportTree(t)))
	require.NoError(t, err)

	var first []importer.ResourceID
	for id := range seq.All() {
		first = append(first, id)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []importer.ResourceID{destURI + "/b", destURI + "/c"}, first)
	assert.Equal(t, 3, seq.Len())

	rest := slices.Collect(seq.All())
	assert.Equal(t, []importer.ResourceID{destURI + "/a", destURI + "/bin", destURI + "/a/child"}, rest)
	assert.Empty(t, slices.Collect(seq.All()))
}

func TestSequencerManyTies(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	stamps := []string{"", "2021-05-05T10:00:00Z", "2021-05-05T09:00:00+02:00", "2020-12-31T23:59:59.999"}
	files := make(map[string]string)
	for i := range 40 {
		name := fmt.Sprintf("r%02d", i)
		files[authority+"/"+name+".ttl"] = description(sourceURI+"/"+name, stamps[i%len(stamps)], false)
	}
	testutil.WriteTree(t, base, files)

	seq, err := importer.NewSequencer(context.Background(), exportConfig(base))
	require.NoError(t, err)
	ids := slices.Collect(seq.All())
	require.Len(t, ids, 40)

	millis := func(s string) int64 {
		if s == "" {
			return 0
		}
		ts, err := importer.ParseDateTime(s)
		require.NoError(t, err)
		return ts.UnixMilli()
	}
	type key struct {
		millis int64
		index  int
	}
	var prev key
	seen := make(map[importer.ResourceID]bool)
	for n, id := range ids {
		require.False(t, seen[id], "duplicate %s", id)
		seen[id] = true

		var index int
		_, err := fmt.Sscanf(string(id), destURI+"/r%02d", &index)
		require.NoError(t, err)
		cur := key{millis: millis(stamps[index%len(stamps)]), index: index}
		if n > 0 {
			assert.True(t, prev.millis < cur.millis || (prev.millis == cur.millis && prev.index < cur.index),
				"%v sorted before %v", prev, cur)
		}
		prev = cur
	}
}

func TestSequencerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name: "malformed timestamp",
			files: map[string]string{
				authority + "/a.ttl": description(sourceURI+"/a", "yesterday", false),
			},
			wantErr: importer.ErrMalformedMetadata,
		},
		{
			name: "malformed description",
			files: map[string]string{
				authority + "/a.ttl": "<http://localhost:8080/rest/a> is not turtle",
			},
			wantErr: importer.ErrMalformedMetadata,
		},
		{
			name: "duplicate identifier",
			files: map[string]string{
				authority + "/x.ttl": description(sourceURI+"/bin", "", true),
				authority + "/y.ttl": description(sourceURI+"/bin", "", true),
			},
			wantErr: importer.ErrDuplicateResource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := t.TempDir()
			testutil.WriteTree(t, base, tt.files)
			_, err := importer.NewSequencer(context.Background(), exportConfig(base))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := importer.NewSequencer(context.Background(), exportConfig(filepath.Join(t.TempDir(), "missing")))
	require.ErrorIs(t, err, importer.ErrIO)
}

func TestSequencerTranslator(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	testutil.WriteTree(t, base, map[string]string{
		"one.ttl": description("urn:one", "2001-01-01T00:00:00Z", false),
		"two.ttl": description("urn:two", "2000-01-01T00:00:00Z", false),
	})
	translate := func(path, baseDir string) (importer.ResourceID, error) {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return "", err
		}
		return importer.ResourceID("urn:" + rel[:len(rel)-len(".ttl")]), nil
	}

	seq, err := importer.NewSequencer(context.Background(), importer.Config{BaseDir: base},
		importer.WithTranslator(translate))
	require.NoError(t, err)
	assert.Equal(t, []importer.ResourceID{"urn:two", "urn:one"}, slices.Collect(seq.All()))
}

func TestExtract(t *testing.T) {
	t.Parallel()

	base := exportTree(t)
	ex := importer.NewExtractor(exportConfig(base))

	got, err := ex.Extract(filepath.Join(base, authority, "bin", "fcr%3Ametadata.ttl"))
	require.NoError(t, err)
	want := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, importer.TimestampedID{Millis: want, ID: destURI + "/bin"}, got)

	got, err = ex.Extract(filepath.Join(base, authority, "b.ttl"))
	require.NoError(t, err)
	assert.Equal(t, importer.TimestampedID{ID: destURI + "/b"}, got)

	_, err = ex.Extract(filepath.Join(base, "missing.ttl"))
	require.ErrorIs(t, err, importer.ErrIO)
}

func TestParseDateTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2017-01-02T03:04:05Z", time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2017-01-02T03:04:05.678Z", time.Date(2017, 1, 2, 3, 4, 5, 678e6, time.UTC)},
		{"2017-01-02T03:04:05+01:00", time.Date(2017, 1, 2, 2, 4, 5, 0, time.UTC)},
		{"2017-01-02T03:04:05", time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2017-01-02T03:04:05.5", time.Date(2017, 1, 2, 3, 4, 5, 5e8, time.UTC)},
		{" 2017-01-02T03:04:05Z ", time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := importer.ParseDateTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	for _, bad := range []string{"", "2017-01-02", "yesterday", "2017-13-02T03:04:05Z"} {
		_, err := importer.ParseDateTime(bad)
		require.Error(t, err, bad)
	}
}

func TestURIForFile(t *testing.T) {
	t.Parallel()

	base := "/exports/data"
	translate := importer.URIForFile(exportConfig(base))

	tests := []struct {
		path string
		want importer.ResourceID
	}{
		{base + "/" + authority + "/a.ttl", destURI + "/a"},
		{base + "/" + authority + "/a/b%20c.ttl", destURI + "/a/b c"},
		{base + "/" + authority + "/bin/fcr%3Ametadata.ttl", destURI + "/bin"},
		{base + "/other%3A9090/x.ttl", "http://other:9090/x"},
	}
	for _, tt := range tests {
		got, err := translate(tt.path, base)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := translate("/elsewhere/a.ttl", base)
	require.ErrorIs(t, err, importer.ErrIO)

	_, err = translate(base+"/bad%zz.ttl", base)
	require.ErrorIs(t, err, importer.ErrMalformedMetadata)
}

func TestIterator(t *testing.T) {
	t.Parallel()

	base := exportTree(t)
	seq, err := importer.NewSequencer(context.Background(), exportConfig(base))
	require.NoError(t, err)
	it := importer.NewIterator(seq, importer.NewFileFactory(seq, ""))

	var resources []importer.ImportResource
	for it.Len() > 0 {
		res, err := it.Next(context.Background())
		require.NoError(t, err)
		resources = append(resources, res)
	}
	_, err = it.Next(context.Background())
	require.ErrorIs(t, err, importer.ErrExhausted)

	require.Len(t, resources, 5)
	bin := resources[3]
	assert.Equal(t, importer.ResourceID(destURI+"/bin"), bin.ID)
	assert.Equal(t, filepath.Join(base, authority, "bin", "fcr%3Ametadata.ttl"), bin.Description)
	assert.Equal(t, filepath.Join(base, authority, "bin.binary"), bin.Binary)
	assert.Empty(t, resources[0].Binary)

	factory := importer.NewFileFactory(seq, ".ttl")
	_, err = factory.CreateFromURI("urn:unknown")
	require.ErrorIs(t, err, importer.ErrUnknownResource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = it.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
