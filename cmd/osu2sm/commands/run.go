package commands

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/negamartin/osu2sm/conf"
	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
	"github.com/negamartin/osu2sm/pipeline"
)

// RunCmd executes the configured pipeline.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the conversion pipeline",
	Long: `Load the pipeline from the config file and convert every beatmapset.

With --watch the command stays alive and re-runs the pipeline whenever
the config file changes.`,
	RunE: runRun,
}

func init() {
	RunCmd.Flags().StringP("config", "c", "", "Config file (default: nearest osu2sm.toml)")
	RunCmd.Flags().Uint64("seed", 0, "Override the run seed (0 = from config, or random)")
	RunCmd.Flags().IntP("parallelism", "p", 0, "Worker count (0 = config, then NumCPU)")
	RunCmd.Flags().BoolP("watch", "w", false, "Re-run whenever the config file changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFlag, _ := cmd.Flags().GetString("config")
	seedFlag, _ := cmd.Flags().GetUint64("seed")
	parallelismFlag, _ := cmd.Flags().GetInt("parallelism")
	watch, _ := cmd.Flags().GetBool("watch")

	cfg, path, err := conf.Load(configFlag)
	if err != nil {
		return err
	}
	if seedFlag != 0 {
		cfg.Seed = seedFlag
	}
	if parallelismFlag != 0 {
		cfg.Parallelism = parallelismFlag
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !watch {
		return executeRun(ctx, cfg, path)
	}

	if path == "" {
		return errors.NewConfigError("--watch needs a config file to watch")
	}
	watcher, err := conf.NewWatcher(path)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		if err := executeRun(ctx, cfg, path); err != nil {
			pterm.Error.Printfln("Run failed: %v", err)
		}
		pterm.Info.Printfln("Watching %s for changes (ctrl-c to quit)", path)
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Changes():
		}
		cfg, path = reloadConfig(configFlag, cfg, path)
	}
}

// reloadConfig reloads the config for the next watch iteration. A broken
// file (typically saved mid-edit) keeps the last good config alive instead
// of killing the watch loop.
func reloadConfig(configFlag string, prev *conf.Config, prevPath string) (*conf.Config, string) {
	cfg, path, err := conf.Load(configFlag)
	if err != nil {
		pterm.Error.Printfln("Config reload failed, keeping the last good config: %v", err)
		return prev, prevPath
	}
	return cfg, path
}

func executeRun(ctx context.Context, cfg *conf.Config, path string) error {
	nodes, err := conf.LoadNodes(path)
	if err != nil {
		return err
	}
	resolved, err := pipeline.ResolveBuckets(nodes)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = randomSeed()
		logger.Infof("no seed configured, using %d", seed)
	}

	start := time.Now()
	stats, err := pipeline.Run(ctx, resolved, pipeline.Options{
		Seed:        seed,
		Parallelism: cfg.Parallelism,
		Permissive:  cfg.Permissive,
	})
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Converted %d beatmapsets (%d charts, %d failed) in %s",
		stats.Sets-stats.Failed, stats.Charts, stats.Failed, time.Since(start).Round(time.Millisecond))
	return nil
}

func randomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
