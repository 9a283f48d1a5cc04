// Package pattern matches runs of closely-spaced notes against a library
// of fixed note-placement templates and instantiates the replacement
// micro-patterns.
//
// A template library (Set) is tried in listed order against each cluster;
// the first matching template wins. This is a deliberate policy: when two
// templates are both valid at a boundary, listing order decides.
package pattern

import (
	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

// TemplateNote is one note of a micro-pattern, positioned relative to the
// cluster it replaces: RelTime in subdivision units, RelKey as a column
// offset wrapped into the target keycount.
type TemplateNote struct {
	RelTime float64 `toml:"time"`
	RelKey  int     `toml:"key"`
}

// Template is a fixed micro-pattern guarded by two thresholds.
type Template struct {
	// Dist is the largest gap in seconds allowed between consecutive rows
	// of a matching cluster.
	Dist float64
	// Keys is the largest mean row simultaneity a matching cluster may
	// have. Fractional values express "usually N keys but sometimes N±1":
	// a jumpstream averaging 1.8 notes per row passes Keys: 2 but not
	// Keys: 1.5.
	Keys float64
	// Notes is the replacement pattern.
	Notes []TemplateNote
}

// Set is an ordered template library plus the subdivision unit the
// templates' relative times are expressed in.
type Set struct {
	// DefaultUnit is the template time base in beats: a template note at
	// RelTime == DefaultUnit lands one cluster-span after the cluster
	// start.
	DefaultUnit float64    `toml:"default_unit"`
	Templates   []Template `toml:"templates"`
}

// Validate checks the set before any chart is processed.
func (s *Set) Validate() error {
	if s.DefaultUnit <= 0 {
		return errors.NewConfigError("pattern set unit must be positive, got %g", s.DefaultUnit)
	}
	if len(s.Templates) == 0 {
		return errors.NewConfigError("pattern set has no templates")
	}
	for i, t := range s.Templates {
		if t.Dist < 0 {
			return errors.NewConfigError("template %d: negative distance threshold", i)
		}
		if t.Keys <= 0 {
			return errors.NewConfigError("template %d: keys threshold must be positive", i)
		}
		if len(t.Notes) == 0 {
			return errors.NewConfigError("template %d has no notes", i)
		}
	}
	return nil
}

// MaxDist returns the largest distance threshold of any template. Rows
// further apart than this can never share a cluster.
func (s *Set) MaxDist() float64 {
	max := 0.0
	for _, t := range s.Templates {
		if t.Dist > max {
			max = t.Dist
		}
	}
	return max
}

// Cluster is a maximal run of rows whose consecutive gaps all fit within
// the set's largest distance threshold.
type Cluster struct {
	// Rows of the source chart covered by the cluster.
	Rows []chart.Row
	// StartBeat and EndBeat bound the cluster.
	StartBeat chart.BeatPos
	EndBeat   chart.BeatPos
	// MaxGap is the largest gap in seconds between consecutive rows.
	MaxGap float64
	// Events counts the cluster's non-tail notes.
	Events int
}

// SpanBeats returns the cluster length in beats.
func (cl *Cluster) SpanBeats() float64 {
	return cl.EndBeat.Sub(cl.StartBeat).Float()
}

// MeanSimultaneity returns the average number of non-tail notes per row,
// the density measure the Keys threshold is compared against.
func (cl *Cluster) MeanSimultaneity() float64 {
	if len(cl.Rows) == 0 {
		return 0
	}
	return float64(cl.Events) / float64(len(cl.Rows))
}

// Clusters splits the chart into clusters under the given row-gap limit in
// seconds. Every row lands in exactly one cluster; isolated rows form
// clusters of one.
func Clusters(c *chart.Chart, maxGap float64) []Cluster {
	rows := c.Rows()
	if len(rows) == 0 {
		return nil
	}
	tt := chart.NewToTime(c)
	times := make([]float64, len(rows))
	for i, row := range rows {
		times[i] = tt.BeatToTime(row.Beat)
	}

	var out []Cluster
	start := 0
	clusterMaxGap := 0.0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) {
			gap := times[i] - times[i-1]
			if gap <= maxGap {
				if gap > clusterMaxGap {
					clusterMaxGap = gap
				}
				continue
			}
		}
		cl := Cluster{
			Rows:      rows[start:i],
			StartBeat: rows[start].Beat,
			EndBeat:   rows[i-1].Beat,
			MaxGap:    clusterMaxGap,
		}
		for _, row := range cl.Rows {
			cl.Events += row.CountHeads(c.Notes)
		}
		out = append(out, cl)
		start = i
		clusterMaxGap = 0
	}
	return out
}

// Matches reports whether the cluster fits the template's thresholds.
// Single-row clusters always pass the distance check.
func (t *Template) Matches(cl *Cluster) bool {
	if len(cl.Rows) > 1 && cl.MaxGap > t.Dist {
		return false
	}
	return cl.MeanSimultaneity() <= t.Keys
}

// Match returns the first template in listed order that accepts the
// cluster, or nil when none does.
func (s *Set) Match(cl *Cluster) *Template {
	for i := range s.Templates {
		if s.Templates[i].Matches(cl) {
			return &s.Templates[i]
		}
	}
	return nil
}

// Instantiate replaces the cluster with the template's pattern. Relative
// times are scaled by the cluster's span over the set's unit and offset by
// the cluster start; relative keys wrap modulo the target keycount. All
// emitted notes are taps.
func (t *Template) Instantiate(cl *Cluster, unit float64, keyCount int) []chart.Note {
	factor := cl.SpanBeats() / unit
	notes := make([]chart.Note, 0, len(t.Notes))
	for _, tn := range t.Notes {
		key := tn.RelKey % keyCount
		if key < 0 {
			key += keyCount
		}
		notes = append(notes, chart.Note{
			Kind: chart.KindHit,
			Beat: cl.StartBeat.Add(chart.BeatsFromFloat(tn.RelTime * factor)),
			Key:  key,
		})
	}
	return notes
}
