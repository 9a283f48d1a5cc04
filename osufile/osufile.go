// Package osufile parses osu! beatmap files (.osu) and converts mania
// beatmaps into the internal chart model.
//
// Only the sections a converter needs are read: metadata, difficulty,
// timing points, the background event and hit objects. Storyboard and
// hitsound data are ignored.
package osufile

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/negamartin/osu2sm/errors"
)

// Gameplay modes as stored in the [General] Mode key.
const (
	ModeOsu   = 0
	ModeTaiko = 1
	ModeCatch = 2
	ModeMania = 3
)

// TimingPoint is one entry of the [TimingPoints] section. Inherited
// points carry slider velocity, not tempo, and are kept only so callers
// can skip them knowingly.
type TimingPoint struct {
	// Time in milliseconds.
	Time float64
	// BeatLen is milliseconds per beat for uninherited points.
	BeatLen float64
	// Uninherited marks a real tempo change.
	Uninherited bool
}

// Hit object type bits.
const (
	typeCircle = 1 << 0
	typeHold   = 1 << 7
)

// HitObject is one entry of the [HitObjects] section.
type HitObject struct {
	X    int
	Y    int
	Time float64
	Type int
	// EndTime is set for mania holds, in milliseconds.
	EndTime float64
}

// IsHold reports whether the object is a mania hold.
func (h *HitObject) IsHold() bool { return h.Type&typeHold != 0 }

// Beatmap is a parsed .osu file.
type Beatmap struct {
	FormatVersion int

	// [General]
	AudioFilename string
	PreviewTime   float64
	Mode          int

	// [Metadata]
	Title         string
	TitleUnicode  string
	Artist        string
	ArtistUnicode string
	Creator       string
	Version       string
	Source        string
	Tags          string

	// [Difficulty]; for mania CircleSize is the column count.
	CircleSize float64

	// [Events]
	Background string

	TimingPoints []TimingPoint
	HitObjects   []HitObject
}

// ParseFile parses the .osu file at path.
func ParseFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bm, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return bm, nil
}

// Parse parses a .osu file from the reader.
func Parse(r io.Reader) (*Beatmap, error) {
	bm := &Beatmap{PreviewTime: -1}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	section := ""
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if first {
			first = false
			if v, ok := strings.CutPrefix(line, "osu file format v"); ok {
				bm.FormatVersion, _ = strconv.Atoi(v)
				continue
			}
			return nil, errors.New("missing osu file format header")
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}
		var err error
		switch section {
		case "General", "Metadata", "Difficulty":
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			bm.setKey(strings.TrimSpace(key), strings.TrimSpace(value))
		case "Events":
			bm.parseEvent(line)
		case "TimingPoints":
			err = bm.parseTimingPoint(line)
		case "HitObjects":
			err = bm.parseHitObject(line)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading beatmap")
	}
	return bm, nil
}

func (bm *Beatmap) setKey(key, value string) {
	switch key {
	case "AudioFilename":
		bm.AudioFilename = value
	case "PreviewTime":
		bm.PreviewTime, _ = strconv.ParseFloat(value, 64)
	case "Mode":
		bm.Mode, _ = strconv.Atoi(value)
	case "Title":
		bm.Title = value
	case "TitleUnicode":
		bm.TitleUnicode = value
	case "Artist":
		bm.Artist = value
	case "ArtistUnicode":
		bm.ArtistUnicode = value
	case "Creator":
		bm.Creator = value
	case "Version":
		bm.Version = value
	case "Source":
		bm.Source = value
	case "Tags":
		bm.Tags = value
	case "CircleSize":
		bm.CircleSize, _ = strconv.ParseFloat(value, 64)
	}
}

// parseEvent extracts the background image event. Everything else in
// [Events] is storyboard data.
func (bm *Beatmap) parseEvent(line string) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 || fields[0] != "0" || fields[1] != "0" {
		return
	}
	bm.Background = strings.Trim(fields[2], `"`)
}

func (bm *Beatmap) parseTimingPoint(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return errors.Newf("malformed timing point %q", line)
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return errors.Wrapf(err, "timing point time %q", fields[0])
	}
	beatLen, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return errors.Wrapf(err, "timing point beat length %q", fields[1])
	}
	// Old format versions only carry uninherited points.
	uninherited := beatLen > 0
	if len(fields) >= 7 {
		uninherited = fields[6] == "1"
	}
	bm.TimingPoints = append(bm.TimingPoints, TimingPoint{
		Time:        t,
		BeatLen:     beatLen,
		Uninherited: uninherited,
	})
	return nil
}

func (bm *Beatmap) parseHitObject(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return errors.Newf("malformed hit object %q", line)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return errors.Wrapf(err, "hit object x %q", fields[0])
	}
	y, _ := strconv.Atoi(fields[1])
	t, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return errors.Wrapf(err, "hit object time %q", fields[2])
	}
	typ, err := strconv.Atoi(fields[3])
	if err != nil {
		return errors.Wrapf(err, "hit object type %q", fields[3])
	}
	obj := HitObject{X: x, Y: y, Time: t, Type: typ}
	if obj.IsHold() && len(fields) >= 6 {
		endStr, _, _ := strings.Cut(fields[5], ":")
		obj.EndTime, _ = strconv.ParseFloat(endStr, 64)
	}
	bm.HitObjects = append(bm.HitObjects, obj)
	return nil
}

// Column maps the object's x position to a mania column in [0, keys).
func (h *HitObject) Column(keys int) int {
	col := h.X * keys / 512
	if col < 0 {
		col = 0
	}
	if col >= keys {
		col = keys - 1
	}
	return col
}
