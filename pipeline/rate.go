package pipeline

import (
	"math"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/rating"
)

// Rate scores every chart passing through it with one rating method,
// storing the rescaled score on the chart and optionally assigning the
// meter and difficulty label.
type Rate struct {
	From BucketID
	Into BucketID
	// Method selects the rating method: "count", "density" or "gap".
	Method string
	// Halo and SimWeights configure the density method.
	Halo       []rating.Band
	SimWeights []float64 `toml:"sim_weights"`
	// GapCurve configures the gap method.
	GapCurve [][2]float64 `toml:"gap_curve"`
	// Exponent of the generalized mean used by density and gap.
	Exponent float64
	// Scale maps the raw score onto the output range.
	Scale rating.Scale
	// SetMeter writes the rounded rescaled score as the chart meter.
	SetMeter bool `toml:"set_meter"`
	// SetDiff assigns the label of the largest threshold at or below the
	// rescaled score.
	SetDiff []rating.Threshold `toml:"set_diff"`

	method rating.Method
}

// NewRate returns a Rate node scoring notes-per-second onto a 1-12 meter
// range, roughly matching the osu! star ladder.
func NewRate() *Rate {
	return &Rate{
		From:     Auto(),
		Into:     Auto(),
		Method:   "density",
		Halo:     []rating.Band{{Radius: 0.2, Height: 3}, {Radius: 0.6, Height: 1.5}, {Radius: 1.2, Height: 0.5}},
		Exponent: 1.5,
		Scale:    rating.Scale{InLo: 0, InHi: 14, OutLo: 1, OutHi: 12},
		SetMeter: true,
	}
}

func (n *Rate) Kind() string { return "Rate" }

func (n *Rate) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Rate) Prepare() error {
	switch n.Method {
	case "count":
		n.method = rating.Count{}
	case "density":
		m := rating.Density{Halo: n.Halo, SimWeights: n.SimWeights, Exponent: n.Exponent}
		if err := m.Validate(); err != nil {
			return err
		}
		n.method = m
	case "gap":
		cv, err := curve.FromPairs(n.GapCurve)
		if err != nil {
			return errors.Wrap(err, "gap curve")
		}
		n.method = rating.Gap{Curve: cv, Exponent: n.Exponent}
	default:
		return errors.NewConfigError("unknown rating method %q", n.Method)
	}
	for i := 1; i < len(n.SetDiff); i++ {
		if !(n.SetDiff[i].Value > n.SetDiff[i-1].Value) {
			return errors.NewConfigError("difficulty thresholds must strictly increase")
		}
	}
	return nil
}

func (n *Rate) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		for _, c := range list {
			score, err := rating.Rate(c, n.method, n.Scale, n.SetDiff)
			if err != nil {
				return err
			}
			c.Rating = score.Rescaled
			if n.SetMeter {
				c.Meter = math.Round(score.Rescaled)
			}
			if score.Label != "" {
				c.DiffName = score.Label
			}
			ctx.Log.Debugw("rated chart",
				"chart", c.Desc, "method", n.method.Name(),
				"raw", score.Raw, "rescaled", score.Rescaled, "label", score.Label)
		}
		ctx.Store.Put(&n.Into, list)
		return nil
	})
}
