package pipeline

import (
	"fmt"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/pattern"
	"github.com/negamartin/osu2sm/rng"
)

// Rekey rewrites charts with pattern libraries: runs of closely-spaced
// notes are matched against templates and replaced by the template's
// micro-pattern. Each configured pattern set produces an independent
// variant of every input chart, so one source can fan out into several
// difficulties.
type Rekey struct {
	From BucketID
	Into BucketID
	// Sets are the pattern libraries; one output variant per set.
	Sets []pattern.Set
	// WeightCurve drives column choice for clusters no template accepts.
	WeightCurve [][2]float64 `toml:"weight_curve"`

	weights *curve.Curve
}

// NewRekey returns a Rekey with the default weight curve and no sets.
func NewRekey() *Rekey {
	return &Rekey{
		From:        Auto(),
		Into:        Auto(),
		WeightCurve: DefaultWeightCurve,
	}
}

func (n *Rekey) Kind() string { return "Rekey" }

func (n *Rekey) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Rekey) Prepare() error {
	if len(n.Sets) == 0 {
		return errors.NewConfigError("rekey node has no pattern sets")
	}
	for i := range n.Sets {
		if err := n.Sets[i].Validate(); err != nil {
			return errors.Wrapf(err, "pattern set %d", i)
		}
	}
	cv, err := curve.FromPairs(n.WeightCurve)
	if err != nil {
		return errors.Wrap(err, "rekey weight curve")
	}
	n.weights = cv
	return nil
}

func (n *Rekey) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		out := make([]*chart.Chart, 0, len(list)*len(n.Sets))
		for _, c := range list {
			for setIdx := range n.Sets {
				variant := c
				if setIdx+1 < len(n.Sets) {
					variant = c.Clone()
				}
				n.rekey(ctx, variant, setIdx)
				out = append(out, variant)
			}
		}
		ctx.Store.Put(&n.Into, out)
		return nil
	})
}

// rekey replaces the chart's notes with pattern instantiations, set by
// set. All output notes are taps.
func (n *Rekey) rekey(ctx *Context, c *chart.Chart, setIdx int) {
	set := &n.Sets[setIdx]
	keyCount := c.KeyCount()
	rnd := rng.New(rng.ChartSeed(ctx.Seed, c, fmt.Sprintf("rekey:%d", setIdx)))
	tt := chart.NewToTime(c)
	alloc := NewKeyAlloc(n.weights, keyCount)

	clusters := pattern.Clusters(c, set.MaxDist())
	var out []chart.Note
	allKeys := make([]int, keyCount)
	for i := range allKeys {
		allKeys[i] = i
	}
	for i := range clusters {
		cl := &clusters[i]
		if cl.Events == 0 {
			// Tail-only clusters carry no playable events.
			continue
		}
		if tpl := set.Match(cl); tpl != nil {
			for _, note := range tpl.Instantiate(cl, set.DefaultUnit, keyCount) {
				alloc.Touch(note.Key, tt.BeatToTime(note.Beat))
				out = append(out, note)
			}
			continue
		}
		// No template fits: keep the cluster's rhythm, one tap per event,
		// columns picked by the allocator.
		for _, row := range cl.Rows {
			events := row.CountHeads(c.Notes)
			if events == 0 {
				continue
			}
			rowTime := tt.BeatToTime(row.Beat)
			keys, err := alloc.AllocN(allKeys, events, rowTime, rnd)
			if err != nil {
				ctx.Log.Warnw("row wider than the keycount, clamping",
					"chart", c.Desc, "error", err)
			}
			for _, key := range keys {
				out = append(out, chart.Note{Kind: chart.KindHit, Beat: row.Beat, Key: key})
			}
		}
	}
	c.Notes = dedupNotes(out)
	c.SortNotes()
}

// dedupNotes drops repeated (beat, key) cells, which zero-span clusters
// can instantiate. Order is preserved.
func dedupNotes(notes []chart.Note) []chart.Note {
	type cell struct {
		beat chart.BeatPos
		key  int
	}
	seen := make(map[cell]struct{}, len(notes))
	out := notes[:0]
	for _, note := range notes {
		k := cell{note.Beat, note.Key}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, note)
	}
	return out
}
