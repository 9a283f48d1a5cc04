package pipeline

import (
	"math"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

// Align quantizes note beats to a fixed grid. Notes that land on the same
// cell collapse: later taps are dropped, and a hold squashed to zero
// length degrades to a tap.
type Align struct {
	From BucketID
	Into BucketID
	// Grid is the quantization step in beats, eg. 0.25 snaps to 16ths.
	Grid float64
}

// NewAlign returns an Align snapping to 16th notes.
func NewAlign() *Align {
	return &Align{From: Auto(), Into: Auto(), Grid: 0.25}
}

func (n *Align) Kind() string { return "Align" }

func (n *Align) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Align) Prepare() error {
	if n.Grid <= 0 {
		return errors.NewConfigError("align grid must be positive, got %g", n.Grid)
	}
	return nil
}

func (n *Align) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		for _, c := range list {
			n.align(c)
		}
		ctx.Store.Put(&n.Into, list)
		return nil
	})
}

func (n *Align) align(c *chart.Chart) {
	for i := range c.Notes {
		snapped := math.Round(c.Notes[i].Beat.Float()/n.Grid) * n.Grid
		c.Notes[i].Beat = chart.BeatsFromFloat(snapped)
	}
	c.SortNotes()

	// Quantization can stack notes onto the same cell. Keep the first
	// occupant; a tail arriving on its own head's beat turns the hold
	// into a tap.
	keyCount := c.KeyCount()
	headIdx := make([]int, keyCount)
	for i := range headIdx {
		headIdx[i] = -1
	}
	occupied := make(map[cellKey]struct{}, len(c.Notes))
	kept := c.Notes[:0]
	for _, note := range c.Notes {
		if note.Key < 0 || note.Key >= keyCount {
			continue
		}
		if note.IsTail() {
			h := headIdx[note.Key]
			headIdx[note.Key] = -1
			if h < 0 {
				continue
			}
			if !kept[h].Beat.Less(note.Beat) {
				kept[h].Kind = chart.KindHit
				continue
			}
			kept = append(kept, note)
			continue
		}
		cell := cellKey{note.Beat, note.Key}
		if _, taken := occupied[cell]; taken {
			continue
		}
		if headIdx[note.Key] >= 0 {
			// Still inside a hold on this column.
			continue
		}
		occupied[cell] = struct{}{}
		if note.IsHead() {
			headIdx[note.Key] = len(kept)
		}
		kept = append(kept, note)
	}
	// A trailing head without its tail degrades to a tap.
	for _, h := range headIdx {
		if h >= 0 {
			kept[h].Kind = chart.KindHit
		}
	}
	c.Notes = kept
}

type cellKey struct {
	beat chart.BeatPos
	key  int
}
