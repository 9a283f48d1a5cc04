package pipeline

import (
	"math"
	"sort"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

// Select prunes rated chart lists down to a difficulty ladder: near-equal
// scores are deduplicated, the survivors are thinned to at most Max
// charts while keeping them as spread out as possible, and difficulty
// names are assigned in ascending order.
type Select struct {
	From BucketID
	Into BucketID
	// Merge flattens all incoming lists into one before selecting;
	// otherwise each list is selected independently.
	Merge bool
	// Max caps the surviving charts per list. 0 means no cap.
	Max int
	// DedupDist merges chart pairs whose rescaled scores differ by less
	// than this. 0 never merges.
	DedupDist float64 `toml:"dedup_dist"`
	// Bias picks the survivor of a merged pair: 0 keeps the easier chart,
	// 1 the harder, 0.5 whichever sits nearer the midpoint.
	Bias float64 `toml:"dedup_bias"`
	// DiffNames is the label ladder assigned to the survivors.
	DiffNames []string `toml:"diff_names"`
}

// NewSelect returns a Select using the standard difficulty name ladder.
func NewSelect() *Select {
	return &Select{
		From:      Auto(),
		Into:      Auto(),
		Bias:      0.5,
		DiffNames: chart.DefaultDifficultyNames,
	}
}

func (n *Select) Kind() string { return "Select" }

func (n *Select) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *Select) Prepare() error {
	if n.DedupDist < 0 {
		return errors.NewConfigError("dedup distance cannot be negative")
	}
	if n.Bias < 0 || n.Bias > 1 {
		return errors.NewConfigError("bias must be in [0, 1], got %g", n.Bias)
	}
	if len(n.DiffNames) == 0 {
		return errors.NewConfigError("select node needs at least one difficulty name")
	}
	return nil
}

func (n *Select) Apply(ctx *Context) error {
	var merged []*chart.Chart
	err := ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		if n.Merge {
			merged = append(merged, list...)
			return nil
		}
		selected, err := n.selectList(ctx, list)
		if err != nil {
			return err
		}
		ctx.Store.Put(&n.Into, selected)
		return nil
	})
	if err != nil {
		return err
	}
	if n.Merge && merged != nil {
		selected, err := n.selectList(ctx, merged)
		if err != nil {
			return err
		}
		ctx.Store.Put(&n.Into, selected)
	}
	return nil
}

func (n *Select) selectList(ctx *Context, list []*chart.Chart) ([]*chart.Chart, error) {
	out := append([]*chart.Chart(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })

	out = n.dedup(ctx, out)
	if n.Max > 0 && len(out) > n.Max {
		out = keepForSpread(out, n.Max)
	}
	if len(out) > len(n.DiffNames) {
		return nil, errors.NewConfigError(
			"%d charts survive selection but only %d difficulty names are configured",
			len(out), len(n.DiffNames))
	}
	for i, c := range out {
		c.DiffName = n.DiffNames[i]
	}
	return out, nil
}

// dedup repeatedly merges the closest pair of scores while it is within
// DedupDist. The list must be sorted by rating.
func (n *Select) dedup(ctx *Context, list []*chart.Chart) []*chart.Chart {
	if n.DedupDist == 0 {
		return list
	}
	for len(list) > 1 {
		closest := -1
		closestGap := math.Inf(1)
		for i := 1; i < len(list); i++ {
			gap := list[i].Rating - list[i-1].Rating
			if gap < closestGap {
				closestGap = gap
				closest = i
			}
		}
		if closestGap >= n.DedupDist {
			break
		}
		lo, hi := list[closest-1], list[closest]
		target := lo.Rating + n.Bias*(hi.Rating-lo.Rating)
		drop, kept := closest, lo
		if hi.Rating-target < target-lo.Rating {
			drop, kept = closest-1, hi
		}
		ctx.Log.Debugw("deduplicating near-equal difficulties",
			"kept", kept.Desc, "dropped", list[drop].Desc, "gap", closestGap)
		list = append(list[:drop], list[drop+1:]...)
	}
	return list
}

// keepForSpread picks the max charts whose minimum pairwise rating gap is
// the largest achievable by any size-max subset. Ties keep the
// lowest-rated charts. The list must be sorted by rating and longer
// than max.
//
// The optimal gap is always a difference between two list ratings, so the
// candidate gaps are searched: for a fixed gap g the greedy sweep from the
// easiest chart maximizes how many survivors fit with spacing >= g, and
// that count only shrinks as g grows.
func keepForSpread(list []*chart.Chart, max int) []*chart.Chart {
	gaps := make([]float64, 0, len(list)*(len(list)-1)/2)
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			gaps = append(gaps, list[j].Rating-list[i].Rating)
		}
	}
	sort.Float64s(gaps)

	// The smallest gap always fits max survivors, so best stays in range.
	best := sort.Search(len(gaps), func(i int) bool {
		return countWithSpacing(list, gaps[i]) < max
	}) - 1
	return pickWithSpacing(list, gaps[best], max)
}

// countWithSpacing counts how many charts the greedy sweep keeps when
// consecutive survivors must rate at least gap apart.
func countWithSpacing(list []*chart.Chart, gap float64) int {
	count := 1
	last := list[0].Rating
	for _, c := range list[1:] {
		if c.Rating-last >= gap {
			count++
			last = c.Rating
		}
	}
	return count
}

// pickWithSpacing keeps the first max charts of the greedy sweep.
func pickWithSpacing(list []*chart.Chart, gap float64, max int) []*chart.Chart {
	out := list[:1:1]
	last := list[0].Rating
	for _, c := range list[1:] {
		if len(out) == max {
			break
		}
		if c.Rating-last >= gap {
			out = append(out, c)
			last = c.Rating
		}
	}
	return out
}
