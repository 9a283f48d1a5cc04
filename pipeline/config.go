package pipeline

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/negamartin/osu2sm/errors"
)

// NewNode constructs an unconfigured node of the given kind with its
// defaults. The kind set is closed; unknown kinds are config errors.
func NewNode(kind string) (Node, error) {
	switch strings.ToLower(kind) {
	case "osuload", "load":
		return NewOsuLoad(), nil
	case "remap":
		return NewRemap(), nil
	case "rekey":
		return NewRekey(), nil
	case "rate":
		return NewRate(), nil
	case "select":
		return NewSelect(), nil
	case "align":
		return NewAlign(), nil
	case "simultaneous":
		return NewSimultaneous(), nil
	case "pipe":
		return NewPipe(), nil
	case "simfilewrite", "write":
		return NewSimfileWrite(), nil
	}
	return nil, errors.NewConfigError("unknown node kind %q", kind)
}

// NodeList decodes a pipeline graph from a TOML array of node tables,
// each carrying a "kind" key plus the node's parameters.
type NodeList []Node

// UnmarshalTOML implements toml.Unmarshaler.
func (l *NodeList) UnmarshalTOML(data interface{}) error {
	raws, err := asMapList(data)
	if err != nil {
		return err
	}
	nodes := make([]Node, 0, len(raws))
	for i, raw := range raws {
		node, err := nodeFromMap(raw)
		if err != nil {
			return errors.Wrapf(err, "node %d", i+1)
		}
		nodes = append(nodes, node)
	}
	*l = nodes
	return nil
}

// nodeFromMap builds one node from its decoded TOML table: the kind key
// picks the variant and the remaining keys are re-encoded and decoded
// into the node's own fields.
func nodeFromMap(raw map[string]interface{}) (Node, error) {
	kindVal, ok := raw["kind"]
	if !ok {
		return nil, errors.NewConfigError("node table without a kind key")
	}
	kind, ok := kindVal.(string)
	if !ok {
		return nil, errors.NewConfigError("node kind must be a string")
	}
	node, err := NewNode(kind)
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if key != "kind" {
			params[key] = value
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(params); err != nil {
		return nil, errors.Wrapf(err, "re-encoding %s parameters", kind)
	}
	if err := toml.Unmarshal(buf.Bytes(), node); err != nil {
		return nil, errors.Wrapf(errors.ErrConfig, "%s parameters: %v", kind, err)
	}
	return node, nil
}

// UnmarshalTOML implements toml.Unmarshaler. A route is either a string
// ("auto", "null", or a bucket name) or a table holding an inline
// sub-graph under a "nest", "chain" or "pipe" key.
func (b *BucketID) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		switch strings.ToLower(v) {
		case "auto":
			*b = Auto()
		case "null", "":
			*b = Null()
		default:
			*b = Name(v)
		}
		return nil
	case map[string]interface{}:
		for key, inner := range v {
			sub, err := subNodes(inner)
			if err != nil {
				return errors.Wrapf(err, "%s route", key)
			}
			switch strings.ToLower(key) {
			case "nest":
				*b = Nest(sub...)
			case "chain":
				*b = Chain(sub...)
			case "pipe":
				if len(sub) != 1 {
					return errors.NewConfigError("pipe route needs exactly one node, got %d", len(sub))
				}
				*b = Pipe(sub[0])
			default:
				return errors.NewConfigError("unknown route key %q", key)
			}
			if len(v) > 1 {
				return errors.NewConfigError("route table must hold a single key")
			}
			return nil
		}
		return errors.NewConfigError("empty route table")
	}
	return errors.NewConfigError("route must be a string or a sub-graph table")
}

func subNodes(data interface{}) ([]Node, error) {
	raws, err := asMapList(data)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(raws))
	for i, raw := range raws {
		node, err := nodeFromMap(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "sub-node %d", i+1)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// asMapList accepts the two shapes the decoder produces for arrays of
// tables.
func asMapList(data interface{}) ([]map[string]interface{}, error) {
	switch v := data.(type) {
	case []map[string]interface{}:
		return v, nil
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.NewConfigError("expected a node table, got %T", item)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, errors.NewConfigError("expected a list of node tables, got %T", data)
}
