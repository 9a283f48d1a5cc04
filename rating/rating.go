// Package rating computes scalar difficulty scores for charts.
//
// A rating method reduces a chart to a raw scalar in method-defined units.
// The raw score is then pushed through an affine rescale and, optionally,
// mapped to a discrete difficulty label via a threshold table.
package rating

import (
	"math"
	"sort"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/errors"
)

// Score is the result of rating one chart.
type Score struct {
	// Raw is the method-defined scalar before any mapping.
	Raw float64
	// Rescaled is Raw after the affine range mapping.
	Rescaled float64
	// Label is the assigned difficulty name, empty when the chart falls
	// below the smallest threshold or no table is configured.
	Label string
}

// Method rates charts. Implementations are stateless and safe for
// concurrent use.
type Method interface {
	// Name identifies the method in configuration and logs.
	Name() string
	// Rate returns the raw difficulty scalar. Charts with no notes rate 0.
	Rate(c *chart.Chart) (float64, error)
}

// Scale is an affine range mapping: values in [InLo, InHi] map linearly
// onto [OutLo, OutHi]; values outside the input domain clamp.
type Scale struct {
	InLo  float64 `toml:"in_lo"`
	InHi  float64 `toml:"in_hi"`
	OutLo float64 `toml:"out_lo"`
	OutHi float64 `toml:"out_hi"`
}

// Apply maps v through the scale.
func (s Scale) Apply(v float64) float64 {
	if s.InHi == s.InLo {
		return s.OutLo
	}
	if v <= s.InLo {
		return s.OutLo
	}
	if v >= s.InHi {
		return s.OutHi
	}
	return s.OutLo + (v-s.InLo)/(s.InHi-s.InLo)*(s.OutHi-s.OutLo)
}

// Threshold pairs a rescaled-score cutoff with a difficulty label.
type Threshold struct {
	Value float64
	Label string
}

// LabelFor returns the label of the largest threshold <= value, or the
// empty string when value falls below every threshold. Thresholds must be
// sorted ascending by Value.
func LabelFor(thresholds []Threshold, value float64) string {
	label := ""
	for _, th := range thresholds {
		if value >= th.Value {
			label = th.Label
		} else {
			break
		}
	}
	return label
}

// Rate runs the full rating: raw score, rescale, label lookup.
func Rate(c *chart.Chart, m Method, scale Scale, thresholds []Threshold) (Score, error) {
	raw, err := m.Rate(c)
	if err != nil {
		return Score{}, errors.Wrapf(err, "rating %q with %s", c.Desc, m.Name())
	}
	rescaled := scale.Apply(raw)
	return Score{
		Raw:      raw,
		Rescaled: rescaled,
		Label:    LabelFor(thresholds, rescaled),
	}, nil
}

// eventTimes returns the absolute times of all non-tail notes, grouped so
// callers can see row boundaries: times is ascending and ranks[i] is the
// position of event i within its simultaneous row.
func eventTimes(c *chart.Chart) (times []float64, ranks []int) {
	tt := chart.NewToTime(c)
	for _, row := range c.Rows() {
		t := tt.BeatToTime(row.Beat)
		rank := 0
		for _, note := range c.Notes[row.Start:row.End] {
			if note.IsTail() {
				continue
			}
			times = append(times, t)
			ranks = append(ranks, rank)
			rank++
		}
	}
	return times, ranks
}

// generalizedMean computes (mean of v^p)^(1/p). With p == 1 this is the
// plain average; p > 1 weighs bursts more heavily.
func generalizedMean(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p == 1 {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Pow(v, p)
	}
	return math.Pow(sum/float64(len(values)), 1/p)
}

// Count rates a chart as unweighted events per second.
type Count struct{}

// Name implements Method.
func (Count) Name() string { return "count" }

// Rate implements Method.
func (Count) Rate(c *chart.Chart) (float64, error) {
	times, _ := eventTimes(c)
	if len(times) == 0 {
		return 0, nil
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0, nil
	}
	return float64(len(times)) / span, nil
}

// Band is one concentric halo band: Height applies at distances up to
// Radius from the event.
type Band struct {
	Radius float64
	Height float64
}

// Density rates a chart by local note density.
//
// Every event contributes a halo centered on its time; halos from
// overlapping events sum. Simultaneous events beyond the first are
// downweighted per SimWeights rank (extra ranks reuse the last weight).
// The score is a generalized mean of the instantaneous density over the
// chart's support with the configured Exponent.
type Density struct {
	// Halo bands, radii strictly increasing.
	Halo []Band
	// SimWeights[r] scales the (r+1)-th simultaneous event of a row.
	SimWeights []float64
	// Exponent of the generalized mean: 1 is a plain time-average,
	// greater than 1 favors short bursts.
	Exponent float64
}

// Name implements Method.
func (Density) Name() string { return "density" }

// Validate checks the halo configuration. Call it once when the method is
// configured so a bad halo fails the run instead of every chart.
func (d Density) Validate() error {
	if len(d.Halo) == 0 {
		return errors.NewConfigError("density method needs at least one halo band")
	}
	for i := 1; i < len(d.Halo); i++ {
		if !(d.Halo[i].Radius > d.Halo[i-1].Radius) {
			return errors.NewConfigError("halo radii must strictly increase")
		}
	}
	return nil
}

func (d Density) simWeight(rank int) float64 {
	if len(d.SimWeights) == 0 {
		return 1
	}
	if rank >= len(d.SimWeights) {
		rank = len(d.SimWeights) - 1
	}
	return d.SimWeights[rank]
}

func (d Density) halo(dist float64) float64 {
	for _, band := range d.Halo {
		if dist <= band.Radius {
			return band.Height
		}
	}
	return 0
}

// Rate implements Method.
func (d Density) Rate(c *chart.Chart) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	exponent := d.Exponent
	if exponent <= 0 {
		exponent = 1
	}

	times, ranks := eventTimes(c)
	if len(times) == 0 {
		return 0, nil
	}
	maxRadius := d.Halo[len(d.Halo)-1].Radius

	// The summed density is piecewise constant, changing only where some
	// event's band edge starts or ends. Collect every such breakpoint and
	// integrate exactly between consecutive ones.
	breaks := make([]float64, 0, len(times)*len(d.Halo)*2)
	for _, t := range times {
		for _, band := range d.Halo {
			breaks = append(breaks, t-band.Radius, t+band.Radius)
		}
	}
	sort.Float64s(breaks)

	total := 0.0
	totalTime := breaks[len(breaks)-1] - breaks[0]
	if totalTime <= 0 {
		return 0, nil
	}
	for i := 1; i < len(breaks); i++ {
		width := breaks[i] - breaks[i-1]
		if width <= 0 {
			continue
		}
		mid := breaks[i-1] + width/2
		density := d.densityAt(times, ranks, mid, maxRadius)
		total += math.Pow(density, exponent) * width
	}
	return math.Pow(total/totalTime, 1/exponent), nil
}

// densityAt sums halo contributions of all events within maxRadius of t.
func (d Density) densityAt(times []float64, ranks []int, t, maxRadius float64) float64 {
	lo := sort.SearchFloat64s(times, t-maxRadius)
	sum := 0.0
	for i := lo; i < len(times) && times[i] <= t+maxRadius; i++ {
		h := d.halo(math.Abs(t - times[i]))
		if h != 0 {
			sum += h * d.simWeight(ranks[i])
		}
	}
	return sum
}

// Gap rates a chart from its inter-event time gaps, rewarding consistency
// rather than burst density: the curve maps each consecutive gap to a
// value and the score is their generalized mean.
type Gap struct {
	Curve    *curve.Curve
	Exponent float64
}

// Name implements Method.
func (Gap) Name() string { return "gap" }

// Rate implements Method.
func (g Gap) Rate(c *chart.Chart) (float64, error) {
	if g.Curve == nil {
		return 0, errors.NewConfigError("gap method needs a curve")
	}
	exponent := g.Exponent
	if exponent <= 0 {
		exponent = 1
	}
	times, _ := eventTimes(c)
	var values []float64
	for i := 1; i < len(times); i++ {
		gap := times[i] - times[i-1]
		if gap > 0 {
			values = append(values, g.Curve.Eval(gap))
		}
	}
	return generalizedMean(values, exponent), nil
}
