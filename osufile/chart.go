package osufile

import (
	"sort"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

// ToChart converts a parsed mania beatmap into the internal chart model.
// Beat 0 is anchored at the first uninherited timing point; every object
// time is walked through the tempo changes to recover its beat position.
func (bm *Beatmap) ToChart() (*chart.Chart, error) {
	if bm.Mode != ModeMania {
		return nil, errors.Wrapf(errors.ErrModeMismatch, "beatmap mode %d is not mania", bm.Mode)
	}
	keys := int(bm.CircleSize + 0.5)
	gamemode, err := chart.GamemodeForKeys(keys)
	if err != nil {
		return nil, err
	}

	var tempo []TimingPoint
	for _, tp := range bm.TimingPoints {
		if tp.Uninherited && tp.BeatLen > 0 {
			tempo = append(tempo, tp)
		}
	}
	if len(tempo) == 0 {
		return nil, errors.New("beatmap has no uninherited timing points")
	}

	c := &chart.Chart{
		Title:       pick(bm.TitleUnicode, bm.Title),
		TitleTrans:  bm.Title,
		Artist:      pick(bm.ArtistUnicode, bm.Artist),
		ArtistTrans: bm.Artist,
		Genre:       bm.Source,
		Credit:      bm.Creator,
		Background:  bm.Background,
		Music:       bm.AudioFilename,
		Offset:      -tempo[0].Time / 1000,
		Gamemode:    gamemode,
		Desc:        bm.Version,
	}
	if bm.PreviewTime >= 0 {
		c.SampleStart = bm.PreviewTime / 1000
		c.SampleLen = 15
	}

	// Beat position of every tempo change, accumulated in order.
	beats := make([]float64, len(tempo))
	for i := 1; i < len(tempo); i++ {
		beats[i] = beats[i-1] + (tempo[i].Time-tempo[i-1].Time)/tempo[i-1].BeatLen
	}
	lastBeat := chart.BeatPos{}.Sub(chart.BeatEpsilon)
	for i, tp := range tempo {
		b := chart.BeatsFromFloat(beats[i])
		if !lastBeat.Less(b) {
			// Rounded onto the previous change; the later one wins.
			c.BPMs[len(c.BPMs)-1].BeatLen = tp.BeatLen / 1000
			continue
		}
		c.BPMs = append(c.BPMs, chart.ControlPoint{Beat: b, BeatLen: tp.BeatLen / 1000})
		lastBeat = b
	}

	timeToBeat := func(ms float64) chart.BeatPos {
		idx := sort.Search(len(tempo), func(i int) bool { return tempo[i].Time > ms }) - 1
		if idx < 0 {
			idx = 0
		}
		return chart.BeatsFromFloat(beats[idx] + (ms-tempo[idx].Time)/tempo[idx].BeatLen)
	}

	type cell struct {
		beat chart.BeatPos
		key  int
	}
	seen := make(map[cell]struct{}, len(bm.HitObjects))
	for i := range bm.HitObjects {
		obj := &bm.HitObjects[i]
		key := obj.Column(keys)
		beat := timeToBeat(obj.Time)
		if _, dup := seen[cell{beat, key}]; dup {
			continue
		}
		seen[cell{beat, key}] = struct{}{}
		if obj.IsHold() && obj.EndTime > obj.Time {
			end := timeToBeat(obj.EndTime)
			if beat.Less(end) {
				c.Notes = append(c.Notes,
					chart.Note{Kind: chart.KindHead, Beat: beat, Key: key},
					chart.Note{Kind: chart.KindTail, Beat: end, Key: key},
				)
				continue
			}
		}
		c.Notes = append(c.Notes, chart.Note{Kind: chart.KindHit, Beat: beat, Key: key})
	}
	sortNotes(c.Notes)
	return c, nil
}

// sortNotes orders by beat with tails first within a row, so a hold
// ending exactly where another begins stays well-formed.
func sortNotes(notes []chart.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].Beat.Equal(notes[j].Beat) {
			return notes[i].Beat.Less(notes[j].Beat)
		}
		return notes[i].IsTail() && !notes[j].IsTail()
	})
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
