// Package smfile serializes charts to the StepMania .sm format and places
// the files a simfile references next to it.
//
// One .sm file holds the shared song metadata of its first chart plus a
// #NOTES block per difficulty. Notes are emitted in 4-beat measures, each
// subdivided just enough to place every note on an exact row.
package smfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

// The .sm format hardcodes 4 beats per measure.
const beatsInMeasure = 4

// Write serializes the charts as one simfile. The first chart supplies
// the shared song metadata; every chart contributes a #NOTES block.
func Write(w io.Writer, charts []*chart.Chart) error {
	if len(charts) == 0 {
		return errors.New("no charts supplied")
	}
	bw := bufio.NewWriter(w)
	main := charts[0]

	var bpms strings.Builder
	for i, cp := range main.BPMs {
		if i > 0 {
			bpms.WriteByte(',')
		}
		fmt.Fprintf(&bpms, "%s=%s", formatNum(cp.Beat.Float()), formatNum(cp.BPM()))
	}

	fmt.Fprintf(bw, `
// Converted from osu! by osu2sm
#TITLE:%s;
#SUBTITLE:%s;
#ARTIST:%s;
#TITLETRANSLIT:%s;
#SUBTITLETRANSLIT:%s;
#ARTISTTRANSLIT:%s;
#GENRE:%s;
#CREDIT:%s;
#BANNER:%s;
#BACKGROUND:%s;
#LYRICSPATH:;
#CDTITLE:;
#MUSIC:%s;
#OFFSET:%s;
#SAMPLESTART:%s;
#SAMPLELENGTH:%s;
#DISPLAYBPM:%s;
#SELECTABLE:YES;
#BPMS:%s;
#STOPS:;
#BGCHANGES:;
#KEYSOUNDS:;
#ATTACKS:;
`,
		escape(main.Title), escape(main.Subtitle), escape(main.Artist),
		escape(main.TitleTrans), escape(main.SubtitleTrans), escape(main.ArtistTrans),
		escape(main.Genre), escape(main.Credit),
		escape(main.Banner), escape(main.Background),
		escape(main.Music),
		formatNum(main.Offset),
		formatNum(main.SampleStart), formatNum(main.SampleLen),
		displayBPM(main),
		bpms.String(),
	)

	for _, c := range charts {
		fmt.Fprintf(bw, `
#NOTES:
    %s:
    %s:
    %s:
    %s:
    0, 0, 0, 0, 0:`,
			c.Gamemode.ID(), escape(c.Desc), escape(diffName(c)),
			formatNum(math.Round(c.Meter)))
		if err := writeNoteData(bw, c); err != nil {
			return err
		}
		bw.WriteString(";")
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// WriteFile writes the simfile at path.
func WriteFile(path string, charts []*chart.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, charts); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %q", path)
	}
	return f.Close()
}

func diffName(c *chart.Chart) string {
	if c.DiffName != "" {
		return c.DiffName
	}
	return "Edit"
}

func displayBPM(c *chart.Chart) string {
	d := c.DisplayBPM
	if !d.Random && d.Min == 0 && d.Max == 0 {
		return ""
	}
	return d.String()
}

// escape strips the characters that break the #KEY:value; syntax.
func escape(s string) string {
	return strings.NewReplacer(":", "", ";", "", "#", "", "\n", " ").Replace(s)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeNoteData(w *bufio.Writer, c *chart.Chart) error {
	keyCount := c.KeyCount()
	measureLen := chart.BeatsFromFloat(beatsInMeasure)
	measureIdx := 0
	first := 0
	start := chart.BeatPos{}
	for i, note := range c.Notes {
		for !note.Beat.Sub(start).Less(measureLen) {
			if err := writeMeasure(w, keyCount, measureIdx, start, c.Notes[first:i]); err != nil {
				return err
			}
			measureIdx++
			first = i
			start = start.Add(measureLen)
		}
	}
	return writeMeasure(w, keyCount, measureIdx, start, c.Notes[first:])
}

// writeMeasure emits one 4-beat measure, subdivided by the coarsest grid
// that still holds every note exactly.
func writeMeasure(w *bufio.Writer, keyCount, measureIdx int, start chart.BeatPos, notes []chart.Note) error {
	// simplifyBy is the largest common 2^a*3^b factor of all relative
	// positions; dividing it out yields the row grid.
	simplifyBy := int32(chart.FixedPoint)
	if len(notes) > 0 {
		maxExp := [2]int32{math.MaxInt32, math.MaxInt32}
		for _, note := range notes {
			rel := note.Beat.Sub(start)
			if rel.Frac() < 0 {
				return errors.Newf("note at beat %s starts before its measure (%s)", note.Beat, start)
			}
			num, den := rel.Frac(), int32(chart.FixedPoint)
			for f, factor := range [2]int32{2, 3} {
				exp := int32(0)
				for num%factor == 0 && den%factor == 0 {
					num /= factor
					den /= factor
					exp++
				}
				if exp < maxExp[f] {
					maxExp[f] = exp
				}
			}
		}
		simplifyBy = pow32(2, maxExp[0]) * pow32(3, maxExp[1])
	}
	rowsPerBeat := int32(chart.FixedPoint) / simplifyBy
	rowCount := int(beatsInMeasure * rowsPerBeat)

	grid := make([]byte, rowCount*keyCount)
	for i := range grid {
		grid[i] = '0'
	}
	for _, note := range notes {
		rel := note.Beat.Sub(start)
		row := int(rel.Frac() / simplifyBy)
		if row >= rowCount {
			return errors.Newf("note at beat %s overflows measure %d", note.Beat, measureIdx)
		}
		if note.Key < 0 || note.Key >= keyCount {
			return errors.Newf("note key %d outside range [0, %d)", note.Key, keyCount)
		}
		grid[row*keyCount+note.Key] = note.Kind
	}

	if measureIdx > 0 {
		w.WriteString(",")
	}
	fmt.Fprintf(w, "\n// Measure %d", measureIdx)
	for row := 0; row < rowCount; row++ {
		w.WriteString("\n")
		w.Write(grid[row*keyCount : (row+1)*keyCount])
	}
	return nil
}

func pow32(base, exp int32) int32 {
	out := int32(1)
	for ; exp > 0; exp-- {
		out *= base
	}
	return out
}
