package pipeline

import (
	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
)

// bucket stores charts in transit between nodes. Charts arrive in lists
// (one per Put call) and the list boundaries are preserved, because some
// stages care about grouping: a Select without merge dedups within each
// beatmapset list separately.
type bucket struct {
	charts []*chart.Chart
	// lists holds the end index of every stored list.
	lists []int
}

func (b *bucket) putList(charts []*chart.Chart) {
	b.charts = append(b.charts, charts...)
	b.lists = append(b.lists, len(b.charts))
}

// ChartStore holds charts while they move between pipeline nodes, keyed by
// resolved bucket name, plus string globals shared along a beatmapset's
// walk (eg. source paths set by the loader for the writer).
//
// A store belongs to one beatmapset walk at a time; it is not safe for
// concurrent use and is never shared between workers.
type ChartStore struct {
	byName  map[string]*bucket
	globals map[string]string
}

// NewChartStore returns an empty store.
func NewChartStore() *ChartStore {
	return &ChartStore{
		byName:  make(map[string]*bucket),
		globals: make(map[string]string),
	}
}

// Reset clears all buckets and globals for the next beatmapset.
func (s *ChartStore) Reset() {
	for name := range s.byName {
		delete(s.byName, name)
	}
	for name := range s.globals {
		delete(s.globals, name)
	}
}

// GlobalSet stores a string global.
func (s *ChartStore) GlobalSet(name, value string) {
	s.globals[name] = value
}

// GlobalGet fetches a string global.
func (s *ChartStore) GlobalGet(name string) (string, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// GlobalGetExpect fetches a string global that must be set.
func (s *ChartStore) GlobalGetExpect(name string) (string, error) {
	v, ok := s.globals[name]
	if !ok {
		return "", errors.Newf("global %q not set", name)
	}
	return v, nil
}

// Get visits every list stored in the bucket, preserving list boundaries.
//
// If the bucket was marked as the last read it is taken: the charts move
// to the visitor and the bucket empties. Otherwise the visitor receives
// deep copies, keeping the exclusive-ownership rule intact. The visitor
// may Put into other buckets.
func (s *ChartStore) Get(id *BucketID, visit func(list []*chart.Chart) error) error {
	name, take := id.resolved()
	if name == "" {
		// Null bucket.
		return nil
	}
	b, ok := s.byName[name]
	if !ok {
		return nil
	}
	if take {
		logger.Tracew("take bucket", "bucket", name, "charts", len(b.charts))
		delete(s.byName, name)
	} else {
		logger.Tracew("copy bucket", "bucket", name, "charts", len(b.charts))
		b = cloneBucket(b)
	}
	start := 0
	for _, end := range b.lists {
		if err := visit(b.charts[start:end]); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// GetEach visits every chart in the bucket, ignoring list boundaries.
func (s *ChartStore) GetEach(id *BucketID, visit func(c *chart.Chart) error) error {
	return s.Get(id, func(list []*chart.Chart) error {
		for _, c := range list {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put stores a list of charts in the bucket. Ownership of the charts
// passes to the store.
func (s *ChartStore) Put(id *BucketID, charts []*chart.Chart) {
	name := id.resolvedName()
	if name == "" {
		// Null bucket swallows its input.
		logger.Tracew("discard into null bucket", "charts", len(charts))
		return
	}
	logger.Tracew("put bucket", "bucket", name, "charts", len(charts))
	b, ok := s.byName[name]
	if !ok {
		b = &bucket{}
		s.byName[name] = b
	}
	b.putList(charts)
}

// Check sanity-checks every stored chart. Debug aid, not part of the hot
// path.
func (s *ChartStore) Check() error {
	for name, b := range s.byName {
		for idx, c := range b.charts {
			if err := c.Check(); err != nil {
				return errors.Wrapf(err, "chart %d in bucket %q failed the sanity check", idx, name)
			}
		}
	}
	return nil
}

func cloneBucket(b *bucket) *bucket {
	out := &bucket{
		charts: make([]*chart.Chart, len(b.charts)),
		lists:  append([]int(nil), b.lists...),
	}
	for i, c := range b.charts {
		out.charts[i] = c.Clone()
	}
	return out
}
