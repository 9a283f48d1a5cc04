package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
)

// Options configure one pipeline run.
type Options struct {
	// Seed is the run seed every per-chart generator derives from. Equal
	// seeds over equal inputs reproduce output exactly, regardless of
	// scheduling.
	Seed uint64
	// Parallelism bounds the worker pool; 0 means NumCPU.
	Parallelism int
	// Permissive skips gamemode mismatches instead of failing.
	Permissive bool
}

// Stats summarizes a finished run.
type Stats struct {
	// Sets is the number of beatmapsets walked through the graph.
	Sets int64
	// Failed is the number of beatmapsets isolated by errors.
	Failed int64
	// Charts is the number of charts emitted by entry nodes.
	Charts int64
}

// Run executes a resolved pipeline: every entry node enumerates its
// beatmapsets and each batch is walked through the whole graph by a
// bounded worker pool. Each worker owns a private chart store, so walks
// never share mutable state.
//
// The nodes must come from ResolveBuckets. Cancelling the context stops
// the run between beatmapsets.
func Run(ctx context.Context, nodes []Node, opts Options) (Stats, error) {
	var entries []EntryNode
	for _, node := range nodes {
		if entry, ok := node.(EntryNode); ok {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return Stats{}, errors.NewConfigError("pipeline has no entry node")
	}

	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	runID := uuid.NewString()
	log := logger.Named("pipeline").With("run_id", runID)
	log.Infow("starting run", "nodes", len(nodes), "workers", workers, "seed", opts.Seed)

	var stats Stats
	for _, entry := range entries {
		out := outputBucket(entry)
		if out == nil {
			return stats, errors.NewConfigError("entry node %s has no output bucket", entry.Kind())
		}

		batches := make(chan *Batch)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				wctx := &Context{
					Store:      NewChartStore(),
					Log:        log.With("worker", worker),
					Seed:       opts.Seed,
					Permissive: opts.Permissive,
				}
				for batch := range batches {
					atomic.AddInt64(&stats.Sets, 1)
					atomic.AddInt64(&stats.Charts, int64(len(batch.Charts)))
					if err := walk(wctx, nodes, out, batch); err != nil {
						atomic.AddInt64(&stats.Failed, 1)
						wctx.Log.Errorw("beatmapset failed",
							"source", batch.Source, "error", err)
					}
				}
			}(w)
		}

		err := entry.Entry(ctx, func(batch *Batch) error {
			select {
			case batches <- batch:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(batches)
		wg.Wait()
		if err != nil {
			return stats, errors.Wrapf(err, "enumerating %s entry", entry.Kind())
		}
	}

	log.Infow("run finished",
		"sets", stats.Sets, "failed", stats.Failed, "charts", stats.Charts)
	return stats, nil
}

// walk pushes one batch through the whole resolved graph.
func walk(ctx *Context, nodes []Node, out *BucketID, batch *Batch) error {
	ctx.Store.Reset()
	for name, value := range batch.Globals {
		ctx.Store.GlobalSet(name, value)
	}
	ctx.Store.Put(out, batch.Charts)
	for _, node := range nodes {
		if err := node.Apply(ctx); err != nil {
			return errors.Wrapf(err, "%s node", node.Kind())
		}
	}
	return nil
}
