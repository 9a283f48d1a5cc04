package conf

import (
	"github.com/BurntSushi/toml"

	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/pipeline"
)

// graphFile is the slice of the config file the node decoder cares
// about; scalar settings are Viper's business.
type graphFile struct {
	Node pipeline.NodeList `toml:"node"`
}

// LoadNodes decodes the pipeline graph from the config file's [[node]]
// tables. The nodes come back unresolved; run them through
// pipeline.ResolveBuckets before executing.
func LoadNodes(path string) ([]pipeline.Node, error) {
	if path == "" {
		return nil, errors.NewConfigError("no config file found; a pipeline needs [[node]] tables")
	}
	var file graphFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrConfig, "decoding %s: %v", path, err)
	}
	if len(file.Node) == 0 {
		return nil, errors.NewConfigError("config file %s defines no [[node]] tables", path)
	}
	return file.Node, nil
}
