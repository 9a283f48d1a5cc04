package pipeline

import (
	"fmt"
	"strings"

	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
)

type resolveState struct {
	out    []Node
	nextID uint32
}

// genName mints a bucket name no user configuration can collide with.
func (st *resolveState) genName() string {
	st.nextID++
	return fmt.Sprintf("~%d", st.nextID)
}

// ResolveBuckets flattens the node tree into execution order and rewrites
// every routing directive into a concrete bucket name. It then marks the
// last read of each bucket as a take (move instead of deep copy) and runs
// every node's Prepare.
//
// Auto routes bind by declaration position: a node's auto output becomes
// "magnetic" and attaches to the next node's auto input. A node asking for
// input when nothing is magnetic, and a magnetic output that the next node
// ignores, are both configuration errors.
func ResolveBuckets(nodes []Node) ([]Node, error) {
	st := &resolveState{out: make([]Node, 0, len(nodes))}
	if err := st.resolveLayer(nil, nil, nodes, true); err != nil {
		return nil, err
	}

	lastReads := make(map[string]*BucketID)
	for _, node := range st.out {
		for _, ref := range node.Buckets() {
			if ref.Kind == BucketInput {
				lastReads[ref.ID.resolvedName()] = ref.ID
			}
		}
	}
	for _, b := range lastReads {
		b.take = true
	}

	for _, d := range danglingOutputs(st.out) {
		logger.Warnw("node output is never read, its charts will be discarded",
			"node", d)
	}

	for _, node := range st.out {
		if err := node.Prepare(); err != nil {
			return nil, errors.Wrapf(err, "preparing %s node", node.Kind())
		}
	}
	return st.out, nil
}

// resolveLayer resolves one list of sibling nodes. input and output are
// the buckets the layer as a whole reads from and writes to (nil when
// unbound). In chained mode the siblings thread serially: each node's
// output feeds the next node's input and only the last binds to the layer
// output. In non-chained (nest) mode every sibling reads the layer input
// independently and all bind their outputs to the layer output, merging.
func (st *resolveState) resolveLayer(input, output *string, nodes []Node, chained bool) error {
	lastMagneticOut := cloneOpt(input)
	for i, node := range nodes {
		// The last node's output binds to the layer output. In nest mode
		// every node's output does.
		var magneticOut *string
		if !chained || i+1 == len(nodes) {
			magneticOut = cloneOpt(output)
		}
		if !chained {
			lastMagneticOut = cloneOpt(input)
		}
		insertIdx := len(st.out)
		for _, ref := range node.Buckets() {
			b := ref.ID
			subChained := b.state == bucketChain
			var name string
			switch b.state {
			case bucketAuto:
				switch ref.Kind {
				case BucketInput:
					if lastMagneticOut == nil {
						return errors.NewConfigError(
							"%s node wants input, but the previous node does not output", node.Kind())
					}
					name = *lastMagneticOut
					lastMagneticOut = nil
				case BucketOutput:
					if magneticOut == nil {
						n := st.genName()
						magneticOut = &n
					}
					name = *magneticOut
				}
			case bucketName:
				if strings.HasPrefix(b.name, "~") {
					return errors.NewConfigError(
						"bucket names starting with '~' are reserved, got %q", b.name)
				}
				name = b.name
			case bucketNest, bucketChain:
				switch ref.Kind {
				case BucketInput:
					if lastMagneticOut == nil {
						return errors.NewConfigError(
							"%s node wants input, but the previous node does not output", node.Kind())
					}
					intoNested := *lastMagneticOut
					lastMagneticOut = nil
					fromNested := st.genName()
					if err := st.resolveLayer(&intoNested, &fromNested, b.sub, subChained); err != nil {
						return err
					}
					// The subtree feeds this node, so it must run first.
					insertIdx = len(st.out)
					name = fromNested
				case BucketOutput:
					intoNested := st.genName()
					if magneticOut == nil {
						n := st.genName()
						magneticOut = &n
					}
					if err := st.resolveLayer(&intoNested, magneticOut, b.sub, subChained); err != nil {
						return err
					}
					name = intoNested
				}
			case bucketNull:
				name = ""
			case bucketResolved:
				return errors.NewConfigError("resolved buckets cannot be used directly")
			}
			b.state = bucketResolved
			b.name = name
			b.take = false
			b.sub = nil
		}
		if lastMagneticOut != nil && i != 0 {
			return errors.NewConfigError(
				"output of the previous node is not used as input (before %s node)", node.Kind())
		}
		lastMagneticOut = magneticOut
		st.out = append(st.out, nil)
		copy(st.out[insertIdx+1:], st.out[insertIdx:])
		st.out[insertIdx] = node
	}
	return nil
}

// danglingOutputs returns the kinds of nodes writing to a generated
// bucket that no node reads. The store silently drops those charts, which
// is almost always a trailing node missing an explicit route. User-named
// and null outputs are left alone: naming a bucket or discarding into
// Null is deliberate.
func danglingOutputs(nodes []Node) []string {
	read := make(map[string]bool)
	for _, node := range nodes {
		for _, ref := range node.Buckets() {
			if ref.Kind == BucketInput {
				read[ref.ID.resolvedName()] = true
			}
		}
	}
	var kinds []string
	for _, node := range nodes {
		for _, ref := range node.Buckets() {
			if ref.Kind != BucketOutput {
				continue
			}
			name := ref.ID.resolvedName()
			if strings.HasPrefix(name, "~") && !read[name] {
				kinds = append(kinds, node.Kind())
			}
		}
	}
	return kinds
}

func cloneOpt(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// DescribeGraph renders the resolved node order with its bucket wiring,
// one line per node. Used by the check command.
func DescribeGraph(nodes []Node) []string {
	lines := make([]string, 0, len(nodes))
	for _, node := range nodes {
		var ins, outs []string
		for _, ref := range node.Buckets() {
			name := ref.ID.String()
			if ref.Kind == BucketInput {
				ins = append(ins, name)
			} else {
				outs = append(outs, name)
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s",
			node.Kind(), strings.Join(ins, ", "), strings.Join(outs, ", ")))
	}
	return lines
}
