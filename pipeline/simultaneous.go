package pipeline

import (
	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/rng"
)

// Simultaneous caps the number of concurrently active keys. Rows that
// exceed the cap, counting held columns, have random notes trimmed with
// the chart's own seeded generator.
type Simultaneous struct {
	From BucketID
	Into BucketID
	// Max is the largest allowed number of concurrently pressed keys.
	Max int
}

// NewSimultaneous returns a cap suitable for one-handed play.
func NewSimultaneous() *Simultaneous {
	return &Simultaneous{From: Auto(), Into: Auto(), Max: 2}
}

func (n *Simultaneous) Kind() string { return "Simultaneous" }

func (n *Simultaneous) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Simultaneous) Prepare() error {
	if n.Max <= 0 {
		return errors.NewConfigError("simultaneous cap must be positive, got %d", n.Max)
	}
	return nil
}

func (n *Simultaneous) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		for _, c := range list {
			n.limit(ctx, c)
		}
		ctx.Store.Put(&n.Into, list)
		return nil
	})
}

func (n *Simultaneous) limit(ctx *Context, c *chart.Chart) {
	keyCount := c.KeyCount()
	ctx.Log.Debugf("limiting simultaneous keys to %d/%dK", n.Max, keyCount)
	rnd := rng.New(rng.ChartSeed(ctx.Seed, c, "simultaneous"))

	active := make([]bool, keyCount)
	var rowNotes []int
	idx := 0
	for idx < len(c.Notes) {
		rowBeat := c.Notes[idx].Beat
		rowTaps := 0
		rowNotes = rowNotes[:0]
		for idx < len(c.Notes) && c.Notes[idx].Beat.Equal(rowBeat) {
			note := &c.Notes[idx]
			if note.IsTail() {
				active[note.Key] = false
			} else {
				rowNotes = append(rowNotes, idx)
				if note.IsHead() {
					active[note.Key] = true
				} else {
					rowTaps++
				}
			}
			idx++
		}
		total := rowTaps
		for _, held := range active {
			if held {
				total++
			}
		}
		excess := total - n.Max
		if excess <= 0 {
			continue
		}
		// Trim a random subset of this row's notes.
		rnd.Shuffle(len(rowNotes), func(i, j int) {
			rowNotes[i], rowNotes[j] = rowNotes[j], rowNotes[i]
		})
		if excess > len(rowNotes) {
			excess = len(rowNotes)
		}
		for _, rem := range rowNotes[:excess] {
			note := &c.Notes[rem]
			if note.IsHead() {
				active[note.Key] = false
			}
			note.Key = -1
		}
	}

	// Drop the trimmed notes along with tails whose head was trimmed.
	open := make([]bool, keyCount)
	kept := c.Notes[:0]
	for _, note := range c.Notes {
		if note.Key < 0 {
			continue
		}
		if note.IsHead() {
			open[note.Key] = true
		} else if note.IsTail() {
			if !open[note.Key] {
				continue
			}
			open[note.Key] = false
		}
		kept = append(kept, note)
	}
	c.Notes = kept
}
