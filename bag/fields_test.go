package bag_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bagport/bag"
)

func TestParseFields(t *testing.T) {
	t.Parallel()

	in := "Source-Organization: Example Org\r\n" +
		"External-Description: A long\n" +
		"  description that wraps\n" +
		"\tonto two lines\n" +
		"\n" +
		"Empty:\n" +
		"Source-Organization: Repeated\n"

	fields, err := bag.ParseFields(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, bag.Fields{
		"Source-Organization":  "Repeated",
		"External-Description": "A long description that wraps onto two lines",
		"Empty":                "",
	}, fields)
}

func TestParseFieldsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"no colon here\n", " leading continuation\n", ": no label\n"} {
		_, err := bag.ParseFields(strings.NewReader(in))
		require.ErrorIs(t, err, bag.ErrMalformedTagFile, in)
	}
}

func TestFieldsWriteTo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := bag.Fields{"B": "2", "A": "1"}.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "A: 1\nB: 2\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

func TestTagFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bag-info.txt", bag.TagFileName("Bag-Info"))
	assert.Equal(t, "aptrust-info.txt", bag.TagFileName("APTrust-Info"))
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	in := "ABC  data/with space.txt\n" +
		"def\tdata/tab.txt\n" +
		"012 data/line%0Abreak%25.txt\n"
	m, err := bag.ParseManifest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, bag.Manifest{
		"data/with space.txt":   "abc",
		"data/tab.txt":          "def",
		"data/line\nbreak%.txt": "012",
	}, m)

	_, err = bag.ParseManifest(strings.NewReader("onlychecksum\n"))
	require.ErrorIs(t, err, bag.ErrMalformedTagFile)
}
