package chart

import "strconv"

// ToTime converts monotonically increasing beat positions to absolute
// times in seconds, walking the BPM control points once.
//
// Calling BeatToTime with a beat earlier than a previous call returns
// incorrect results; create a fresh ToTime (or copy one as a checkpoint)
// to seek backwards.
type ToTime struct {
	bpms    []ControlPoint
	curIdx  int
	curTime float64
}

// NewToTime builds a converter over the chart's control points and offset.
func NewToTime(c *Chart) *ToTime {
	return &ToTime{bpms: c.BPMs, curTime: -c.Offset}
}

// NewToTimeRaw builds a converter from explicit control points.
func NewToTimeRaw(bpms []ControlPoint, offset float64) *ToTime {
	return &ToTime{bpms: bpms, curTime: -offset}
}

// BeatToTime returns the absolute time in seconds of the given beat.
func (tt *ToTime) BeatToTime(beat BeatPos) float64 {
	for tt.curIdx+1 < len(tt.bpms) {
		cur := tt.bpms[tt.curIdx]
		next := tt.bpms[tt.curIdx+1]
		if next.Beat.LessEq(beat) {
			tt.curTime += next.Beat.Sub(cur.Beat).Float() * cur.BeatLen
			tt.curIdx++
		} else {
			break
		}
	}
	cur := tt.bpms[tt.curIdx]
	return tt.curTime + beat.Sub(cur.Beat).Float()*cur.BeatLen
}

// Row is a run of notes sharing the same beat.
type Row struct {
	Beat  BeatPos
	Start int
	End   int
}

// Rows groups the chart's notes into same-beat rows, in order.
func (c *Chart) Rows() []Row {
	var rows []Row
	i := 0
	for i < len(c.Notes) {
		beat := c.Notes[i].Beat
		j := i
		for j < len(c.Notes) && c.Notes[j].Beat.Equal(beat) {
			j++
		}
		rows = append(rows, Row{Beat: beat, Start: i, End: j})
		i = j
	}
	return rows
}

// CountHeads returns the number of non-tail notes in the row.
func (r Row) CountHeads(notes []Note) int {
	n := 0
	for _, note := range notes[r.Start:r.End] {
		if !note.IsTail() {
			n++
		}
	}
	return n
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
