package pipeline

import (
	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/rng"
)

// Remap converts charts between gamemodes, reassigning every note to a
// column of the target keycount with recency-weighted randomness. Holds
// lock their output column until the tail passes, so overlapping holds
// never collide; when every column is locked the note is dropped.
type Remap struct {
	From BucketID
	Into BucketID
	// Gamemode is the conversion target.
	Gamemode chart.Gamemode
	// AvoidShuffle skips reassignment when the keycount already matches.
	AvoidShuffle bool `toml:"avoid_shuffle"`
	// WeightCurve maps seconds since a column was last active to its
	// choice weight.
	WeightCurve [][2]float64 `toml:"weight_curve"`

	weights *curve.Curve
}

// NewRemap returns a Remap with the default jack-avoiding weight curve.
func NewRemap() *Remap {
	return &Remap{
		From:         Auto(),
		Into:         Auto(),
		Gamemode:     chart.PumpSingle,
		AvoidShuffle: true,
		WeightCurve:  DefaultWeightCurve,
	}
}

func (n *Remap) Kind() string { return "Remap" }

func (n *Remap) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Remap) Prepare() error {
	if n.Gamemode.KeyCount() <= 0 {
		return errors.NewConfigError("cannot convert into 0-key gamemode %s", n.Gamemode)
	}
	cv, err := curve.FromPairs(n.WeightCurve)
	if err != nil {
		return errors.Wrap(err, "remap weight curve")
	}
	n.weights = cv
	return nil
}

func (n *Remap) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		kept := list[:0]
		for _, c := range list {
			if err := n.convert(ctx, c); err != nil {
				if errors.IsTransformError(err) {
					ctx.Log.Warnw("dropping unconvertible chart",
						"chart", c.Desc, "error", err)
					continue
				}
				return err
			}
			kept = append(kept, c)
		}
		ctx.Store.Put(&n.Into, kept)
		return nil
	})
}

// Column lock states during conversion.
const (
	colFree int8 = iota
	// colHeld columns unlock when the hold's tail arrives.
	colHeld
	// colTapped columns unlock once the beat moves past the tap, keeping
	// simultaneous notes on distinct columns.
	colTapped
)

func (n *Remap) convert(ctx *Context, c *chart.Chart) error {
	inKeys := c.KeyCount()
	outKeys := n.Gamemode.KeyCount()
	ctx.Log.Debugf("converting %dK to %dK", inKeys, outKeys)
	if inKeys <= 0 {
		return errors.NewTransformError("cannot convert 0-key chart")
	}

	if n.AvoidShuffle && inKeys == outKeys {
		c.Gamemode = n.Gamemode
		return nil
	}

	rnd := rng.New(rng.ChartSeed(ctx.Seed, c, "convert"))
	tt := chart.NewToTime(c)
	alloc := NewKeyAlloc(n.weights, outKeys)

	locked := make([]int8, outKeys)
	lockedUntil := make([]chart.BeatPos, outKeys)
	// unlockByTails maps an input key holding a note to the output column
	// its tail must release.
	unlockByTails := make([]int, inKeys)
	candidates := make([]int, 0, outKeys)

	for i := range c.Notes {
		note := &c.Notes[i]
		noteTime := tt.BeatToTime(note.Beat)
		for key := range locked {
			if locked[key] == colTapped && lockedUntil[key].Less(note.Beat) {
				locked[key] = colFree
			}
		}
		if note.IsTail() {
			outKey := unlockByTails[note.Key]
			if outKey < 0 {
				// The head was dropped; the tail goes with it.
				note.Key = -1
				continue
			}
			locked[outKey] = colFree
			alloc.Touch(outKey, noteTime)
			note.Key = outKey
			continue
		}
		candidates = candidates[:0]
		for key := range locked {
			if locked[key] == colFree {
				candidates = append(candidates, key)
			}
		}
		outKey, ok := alloc.Alloc(candidates, noteTime, rnd)
		if !ok {
			// Every output column is busy.
			if note.IsHead() {
				unlockByTails[note.Key] = -1
			}
			note.Key = -1
			continue
		}
		if note.IsHead() {
			locked[outKey] = colHeld
			unlockByTails[note.Key] = outKey
		} else {
			locked[outKey] = colTapped
			lockedUntil[outKey] = note.Beat
		}
		note.Key = outKey
	}

	kept := c.Notes[:0]
	for _, note := range c.Notes {
		if note.Key >= 0 {
			kept = append(kept, note)
		}
	}
	c.Notes = kept
	c.Gamemode = n.Gamemode
	return nil
}
