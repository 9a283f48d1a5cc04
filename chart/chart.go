// Package chart holds the in-memory beatmap model shared by every pipeline
// stage: timed notes over a fixed column count, plus the metadata needed to
// serialize a playable simfile.
//
// Charts are exclusively owned by whichever stage currently holds them.
// Ownership transfers along pipeline edges; a stage that fans a chart out
// must Clone it first.
package chart

import (
	"sort"

	"github.com/negamartin/osu2sm/errors"
)

// ControlPoint is a BPM change. BeatLen is the length of one beat in
// seconds starting at Beat.
type ControlPoint struct {
	Beat    BeatPos
	BeatLen float64
}

// BPM returns the tempo of the control point in beats per minute.
func (cp ControlPoint) BPM() float64 {
	return 60. / cp.BeatLen
}

// DisplayBPM is the BPM shown on the song wheel.
type DisplayBPM struct {
	// Random displays a scrambling random BPM.
	Random bool
	// Min and Max bound the displayed range; equal values display a single
	// BPM.
	Min, Max float64
}

func (d DisplayBPM) String() string {
	switch {
	case d.Random:
		return "*"
	case d.Min == d.Max:
		return formatFloat(d.Min)
	default:
		return formatFloat(d.Min) + ":" + formatFloat(d.Max)
	}
}

// Chart is one playable difficulty's worth of timed note events at a fixed
// column count, together with the song metadata shared by its beatmapset.
type Chart struct {
	Title         string
	Subtitle      string
	Artist        string
	TitleTrans    string
	SubtitleTrans string
	ArtistTrans   string
	Genre         string
	Credit        string

	Banner     string
	Background string
	Music      string

	// Offset is the time in seconds from audio start to beat 0.
	Offset      float64
	BPMs        []ControlPoint
	SampleStart float64
	SampleLen   float64
	DisplayBPM  DisplayBPM

	Gamemode Gamemode
	// Desc identifies the source difficulty (eg. the osu! version name).
	Desc string
	// DiffName is the assigned difficulty label, empty until a Select or
	// Rate stage assigns one.
	DiffName string
	// Meter is the numeric difficulty, as rescaled by a Rate stage.
	Meter float64
	// Rating carries the raw difficulty score between Rate and Select.
	Rating float64

	Notes []Note
}

// KeyCount returns the chart's column count.
func (c *Chart) KeyCount() int {
	return c.Gamemode.KeyCount()
}

// Clone returns a deep copy of the chart. Used at Nest fan-out points so
// every branch owns an independent copy.
func (c *Chart) Clone() *Chart {
	out := *c
	out.BPMs = append([]ControlPoint(nil), c.BPMs...)
	out.Notes = append([]Note(nil), c.Notes...)
	return &out
}

// SortNotes restores non-decreasing beat order after a transform that may
// have disturbed it. The sort is stable so same-beat rows keep their
// relative order.
func (c *Chart) SortNotes() {
	sort.SliceStable(c.Notes, func(i, j int) bool {
		return c.Notes[i].Beat.Less(c.Notes[j].Beat)
	})
}

// LastBeat returns the beat of the final note, or zero if the chart is
// empty.
func (c *Chart) LastBeat() BeatPos {
	if len(c.Notes) == 0 {
		return BeatPos{}
	}
	return c.Notes[len(c.Notes)-1].Beat
}

// Duration returns the time span in seconds from the first to the last
// note.
func (c *Chart) Duration() float64 {
	if len(c.Notes) < 2 {
		return 0
	}
	tt := NewToTime(c)
	start := tt.BeatToTime(c.Notes[0].Beat)
	end := tt.BeatToTime(c.Notes[len(c.Notes)-1].Beat)
	return end - start
}

// FixTails nudges hold tails that collide with a following note at the
// exact same beat and key. osu! allows a hold to end exactly where another
// note starts, but the .sm format cannot represent two notes on one cell,
// so the tail is moved back by the smallest beat unit.
func (c *Chart) FixTails() {
	curBeat := BeatPos{}.Sub(BeatEpsilon)
	curBeatFirst := 0
	for i := 0; i < len(c.Notes); i++ {
		note := c.Notes[i]
		if curBeat.Less(note.Beat) {
			curBeatFirst = i
			curBeat = note.Beat
		}
		if !note.IsTail() {
			continue
		}
		collides := false
		for j := i + 1; j < len(c.Notes) && c.Notes[j].Beat.Equal(curBeat); j++ {
			if c.Notes[j].Key == note.Key {
				collides = true
				break
			}
		}
		if collides {
			c.Notes[i].Beat = c.Notes[i].Beat.Sub(BeatEpsilon)
			rotateRight(c.Notes[curBeatFirst : i+1])
		}
	}
}

func rotateRight(notes []Note) {
	if len(notes) < 2 {
		return
	}
	last := notes[len(notes)-1]
	copy(notes[1:], notes[:len(notes)-1])
	notes[0] = last
}

// Check sanity-checks a chart: monotonic control points and note beats,
// keys within the keycount, no duplicate cells within a row, and matched
// hold head/tail pairs. It prioritizes correctness over speed and is meant
// for debugging and pipeline boundaries, not hot loops.
func (c *Chart) Check() error {
	keyCount := c.KeyCount()
	if len(c.BPMs) == 0 {
		return errors.New("no control points")
	}
	lastBeat := BeatPos{}.Sub(BeatEpsilon)
	for _, cp := range c.BPMs {
		if !lastBeat.Less(cp.Beat) {
			return errors.Newf("control point beats do not increase monotonically (%s then %s)", lastBeat, cp.Beat)
		}
		if !(cp.BeatLen > 0) {
			return errors.Newf("control point beat length (%g) is not a positive real", cp.BeatLen)
		}
		lastBeat = cp.Beat
	}

	open := make([]bool, keyCount)
	openBeat := make([]BeatPos, keyCount)
	rowNotes := make([]bool, keyCount)
	rowTails := make([]bool, keyCount)
	lastBeat = BeatPos{}.Sub(BeatEpsilon)
	for i, note := range c.Notes {
		if note.Beat.Less(lastBeat) {
			return errors.Newf("note beats do not increase monotonically (%s < %s)", note.Beat, lastBeat)
		}
		if !note.Beat.Equal(lastBeat) {
			lastBeat = note.Beat
			for k := range rowNotes {
				rowNotes[k] = false
				rowTails[k] = false
			}
		}
		if !note.IsHit() && !note.IsHead() && !note.IsTail() {
			return errors.Newf("unknown note kind %q at index %d", note.Kind, i)
		}
		if note.Key < 0 || note.Key >= keyCount {
			return errors.Newf("note key %d outside range [0, %d)", note.Key, keyCount)
		}
		if note.IsTail() {
			if rowTails[note.Key] {
				return errors.Newf("two tails on beat %s, key %d", note.Beat, note.Key)
			}
			rowTails[note.Key] = true
			if !open[note.Key] {
				return errors.Newf("tail at beat %s, key %d has no matching head", note.Beat, note.Key)
			}
			if openBeat[note.Key].Equal(note.Beat) {
				return errors.Newf("zero-length hold note at beat %s, key %d", note.Beat, note.Key)
			}
			open[note.Key] = false
		} else {
			if rowNotes[note.Key] {
				return errors.Newf("two hit/head notes on beat %s, key %d", note.Beat, note.Key)
			}
			rowNotes[note.Key] = true
			if open[note.Key] {
				return errors.Newf("note inside open hold at beat %s, key %d", note.Beat, note.Key)
			}
			if note.IsHead() {
				open[note.Key] = true
				openBeat[note.Key] = note.Beat
			}
		}
	}
	for key, o := range open {
		if o {
			return errors.Newf("hold head on key %d has no matching tail", key)
		}
	}
	return nil
}
