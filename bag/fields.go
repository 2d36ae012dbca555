package bag

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Fields holds the labelled values of one tag file. A label repeated in the
// file keeps its last value.
type Fields map[string]string

// Names returns the labels in lexical order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WriteTo writes the fields as "Label: value" lines in lexical label order.
func (f Fields) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, name := range f.Names() {
		m, err := fmt.Fprintf(w, "%s: %s\n", name, f[name])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ParseFields reads a tag file. Lines starting with whitespace continue the
// previous value; blank lines are ignored.
func ParseFields(r io.Reader) (Fields, error) {
	fields := make(Fields)
	var last string
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if text[0] == ' ' || text[0] == '\t' {
			if last == "" {
				return nil, fmt.Errorf("%w: line %d: continuation without a label", ErrMalformedTagFile, line)
			}
			fields[last] += " " + strings.TrimSpace(text)
			continue
		}
		label, value, ok := strings.Cut(text, ":")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("%w: line %d: expected \"Label: value\"", ErrMalformedTagFile, line)
		}
		fields[label] = strings.TrimSpace(value)
		last = label
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTagFile, err)
	}
	return fields, nil
}

// ReadFields parses the tag file at path.
func ReadFields(path string) (Fields, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the bag
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields, err := ParseFields(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fields, nil
}

// TagFileName returns the tag file holding a metadata section:
// "Bag-Info" is stored in bag-info.txt.
func TagFileName(section string) string {
	return strings.ToLower(section) + ".txt"
}
