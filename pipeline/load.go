package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
	"github.com/negamartin/osu2sm/osufile"
)

// Globals set by entry nodes for downstream stages.
const (
	// GlobalSetDir is the absolute directory the beatmapset was loaded
	// from; writers resolve referenced files against it.
	GlobalSetDir = "set-dir"
	// GlobalSetName is the beatmapset directory name, used to name the
	// output.
	GlobalSetName = "set-name"
)

// OsuLoad feeds the pipeline from an osu! song library: every directory
// under Input containing .osu files becomes one beatmapset batch.
type OsuLoad struct {
	Into BucketID
	// Input is the root of the osu! song library.
	Input string
	// Permissive skips non-mania beatmaps instead of failing their
	// beatmapset.
	Permissive bool
}

// NewOsuLoad returns a permissive loader rooted nowhere; configuration
// must set Input.
func NewOsuLoad() *OsuLoad {
	return &OsuLoad{Into: Auto(), Permissive: true}
}

func (n *OsuLoad) Kind() string { return "OsuLoad" }

func (n *OsuLoad) Buckets() []BucketRef {
	return []BucketRef{{BucketOutput, &n.Into}}
}

func (n *OsuLoad) Prepare() error {
	if n.Input == "" {
		return errors.NewConfigError("osu load node needs an input directory")
	}
	info, err := os.Stat(n.Input)
	if err != nil {
		return errors.Wrapf(errors.ErrConfig, "input directory: %v", err)
	}
	if !info.IsDir() {
		return errors.NewConfigError("input path %q is not a directory", n.Input)
	}
	return nil
}

// Apply is a no-op: the runner puts each batch straight into the output
// bucket before walking the graph.
func (n *OsuLoad) Apply(ctx *Context) error { return nil }

// Entry walks the input root and emits one batch per beatmapset
// directory. Parse failures isolate their beatmapset; the walk goes on.
func (n *OsuLoad) Entry(ctx context.Context, emit func(*Batch) error) error {
	sets := make(map[string][]string)
	err := filepath.WalkDir(n.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".osu") {
			dir := filepath.Dir(path)
			sets[dir] = append(sets[dir], path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "walking %q", n.Input)
	}

	dirs := make([]string, 0, len(sets))
	for dir := range sets {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	logger.Infof("found %d beatmapsets under %q", len(dirs), n.Input)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := n.loadSet(dir, sets[dir])
		if err != nil {
			// Isolate the beatmapset and keep going.
			logger.Errorw("skipping beatmapset", "dir", dir, "error", err)
			continue
		}
		if len(batch.Charts) == 0 {
			continue
		}
		if err := emit(batch); err != nil {
			return err
		}
	}
	return nil
}

func (n *OsuLoad) loadSet(dir string, files []string) (*Batch, error) {
	batch := &Batch{
		Source: dir,
		Globals: map[string]string{
			GlobalSetDir:  dir,
			GlobalSetName: filepath.Base(dir),
		},
	}
	sort.Strings(files)
	for _, path := range files {
		bm, err := osufile.ParseFile(path)
		if err != nil {
			return nil, errors.WrapCollaborator(err, dir)
		}
		c, err := bm.ToChart()
		if err != nil {
			if errors.IsModeMismatch(err) && n.Permissive {
				logger.Debugw("skipping non-mania beatmap", "file", path)
				continue
			}
			return nil, errors.WrapCollaborator(err, path)
		}
		batch.Charts = append(batch.Charts, c)
	}
	return batch, nil
}

var _ EntryNode = (*OsuLoad)(nil)
