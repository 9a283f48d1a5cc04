package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/smfile"
)

// SimfileWrite is the terminal stage: it serializes each incoming chart
// list as one .sm simfile under the output root and places the music and
// background files next to it.
type SimfileWrite struct {
	From BucketID
	Into BucketID
	// Output is the root of the generated StepMania song pack.
	Output string
	// CopyStrategies is the ordered fallback list for placing referenced
	// files.
	CopyStrategies []smfile.CopyStrategy `toml:"copy_strategies"`
	// FixTails nudges hold tails colliding with a following note, which
	// the .sm grid cannot represent.
	FixTails bool `toml:"fix_tails"`
}

// NewSimfileWrite returns a writer with the default placement fallbacks.
func NewSimfileWrite() *SimfileWrite {
	return &SimfileWrite{
		From:           Auto(),
		Into:           Null(),
		CopyStrategies: smfile.DefaultCopyStrategies,
		FixTails:       true,
	}
}

func (n *SimfileWrite) Kind() string { return "SimfileWrite" }

func (n *SimfileWrite) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *SimfileWrite) Prepare() error {
	if n.Output == "" {
		return errors.NewConfigError("simfile write node needs an output directory")
	}
	if len(n.CopyStrategies) == 0 {
		return errors.NewConfigError("simfile write node needs at least one copy strategy")
	}
	return nil
}

func (n *SimfileWrite) Apply(ctx *Context) error {
	srcDir, err := ctx.Store.GlobalGetExpect(GlobalSetDir)
	if err != nil {
		return err
	}
	setName, err := ctx.Store.GlobalGetExpect(GlobalSetName)
	if err != nil {
		return err
	}
	listIdx := 0
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		listIdx++
		kept := list[:0]
		for _, c := range list {
			if n.FixTails {
				c.FixTails()
			}
			if err := c.Check(); err != nil {
				// A broken chart is dropped whole, never written partially.
				ctx.Log.Warnw("dropping malformed chart",
					"chart", c.Desc, "error", err)
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			return nil
		}
		if err := n.writeSet(ctx, srcDir, setName, listIdx, kept); err != nil {
			return errors.WrapCollaborator(err, srcDir)
		}
		ctx.Store.Put(&n.Into, kept)
		return nil
	})
}

// writeSet writes one .sm with all the list's charts plus the files it
// references.
func (n *SimfileWrite) writeSet(ctx *Context, srcDir, setName string, listIdx int, charts []*chart.Chart) error {
	name := setName
	if listIdx > 1 {
		name = fmt.Sprintf("%s-%d", setName, listIdx)
	}
	outDir := filepath.Join(n.Output, name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	smPath := filepath.Join(outDir, name+".sm")
	if err := smfile.WriteFile(smPath, charts); err != nil {
		return err
	}
	ctx.Log.Infow("wrote simfile", "path", smPath, "charts", len(charts))

	// Referenced files come from the first chart, same as the metadata.
	main := charts[0]
	for _, ref := range []string{main.Music, main.Background, main.Banner} {
		if ref == "" {
			continue
		}
		src := filepath.Join(srcDir, ref)
		if _, err := os.Stat(src); err != nil {
			ctx.Log.Warnw("referenced file missing", "file", src)
			continue
		}
		if err := smfile.PlaceFile(src, filepath.Join(outDir, ref), n.CopyStrategies); err != nil {
			return err
		}
	}
	return nil
}
