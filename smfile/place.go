package smfile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/negamartin/osu2sm/errors"
)

// CopyStrategy is one way of placing a referenced file (music,
// background) next to the simfile.
type CopyStrategy string

const (
	StrategyHardlink CopyStrategy = "hardlink"
	StrategyCopy     CopyStrategy = "copy"
	StrategySymlink  CopyStrategy = "symlink"
)

// DefaultCopyStrategies tries the cheapest placement first. Hardlinks
// fail across filesystems, where a plain copy takes over; symlinks are a
// last resort since some players refuse them.
var DefaultCopyStrategies = []CopyStrategy{StrategyHardlink, StrategyCopy, StrategySymlink}

// ParseCopyStrategy resolves a strategy name from configuration.
func ParseCopyStrategy(name string) (CopyStrategy, error) {
	switch CopyStrategy(name) {
	case StrategyHardlink, StrategyCopy, StrategySymlink:
		return CopyStrategy(name), nil
	}
	return "", errors.NewConfigError("unknown copy strategy %q", name)
}

// PlaceFile puts src at dst using the first strategy that succeeds. An
// existing destination is left untouched.
func PlaceFile(src, dst string, strategies []CopyStrategy) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	var lastErr error
	for _, strategy := range strategies {
		var err error
		switch strategy {
		case StrategyHardlink:
			err = os.Link(src, dst)
		case StrategyCopy:
			err = copyFile(src, dst)
		case StrategySymlink:
			err = os.Symlink(src, dst)
		default:
			err = errors.Newf("unknown copy strategy %q", strategy)
		}
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return errors.New("no copy strategies configured")
	}
	return errors.Wrapf(lastErr, "placing %q at %q", src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
