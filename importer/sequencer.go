package importer

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
)

// slot is the sort key of one discovered description. index addresses the
// Sequencer's identifier and path arenas.
type slot struct {
	millis int64
	index  int
}

// Sequencer hands out resource identifiers oldest first.
//
// Construction walks the whole export and fixes the order before the first
// identifier is produced. Resources without a timestamp sort first; ties
// keep discovery order. A Sequencer is forward-only and not safe for
// concurrent use.
type Sequencer struct {
	ids   []ResourceID
	paths []string
	byID  map[ResourceID]int
	order []slot
	pos   int
}

// NewSequencer walks cfg.BaseDir and extracts every description.
// Any walk, parse or timestamp failure aborts construction, as does a second
// description resolving to an identifier already seen.
func NewSequencer(ctx context.Context, cfg Config, opts ...Option) (*Sequencer, error) {
	cfg = cfg.withDefaults()
	o := newOptions(cfg, opts)
	ex := &Extractor{cfg: cfg, translate: o.translate, logger: o.logger}

	s := &Sequencer{byID: make(map[ResourceID]int)}
	err := Walk(ctx, cfg.BaseDir, cfg.Suffix, func(index int, path string) error {
		tid, err := ex.Extract(path)
		if err != nil {
			return err
		}
		if prev, ok := s.byID[tid.ID]; ok {
			return fmt.Errorf("%w: %s is described by %s and %s",
				ErrDuplicateResource, tid.ID, s.paths[prev], path)
		}
		s.byID[tid.ID] = index
		s.ids = append(s.ids, tid.ID)
		s.paths = append(s.paths, path)
		s.order = append(s.order, slot{millis: tid.Millis, index: index})

		o.logger.Debug("discovered resource",
			slog.String("id", string(tid.ID)),
			slog.Int64("millis", tid.Millis),
			slog.String("path", path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(s.order, func(a, b slot) int {
		return cmp.Or(cmp.Compare(a.millis, b.millis), cmp.Compare(a.index, b.index))
	})

	o.logger.Info("sequenced resources",
		slog.String("dir", cfg.BaseDir),
		slog.Int("count", len(s.order)))
	return s, nil
}

// Next returns the next identifier, or ErrExhausted once all were returned.
func (s *Sequencer) Next() (ResourceID, error) {
	if s.pos >= len(s.order) {
		return "", ErrExhausted
	}
	id := s.ids[s.order[s.pos].index]
	s.pos++
	return id, nil
}

// Len reports how many identifiers remain.
func (s *Sequencer) Len() int {
	return len(s.order) - s.pos
}

// All returns the remaining identifiers as a single-use sequence. Stopping
// early leaves the rest available to Next.
func (s *Sequencer) All() iter.Seq[ResourceID] {
	return func(yield func(ResourceID) bool) {
		for s.pos < len(s.order) {
			id := s.ids[s.order[s.pos].index]
			s.pos++
			if !yield(id) {
				return
			}
		}
	}
}

// Path returns the description file id was read from.
func (s *Sequencer) Path(id ResourceID) (string, bool) {
	i, ok := s.byID[id]
	if !ok {
		return "", false
	}
	return s.paths[i], true
}
