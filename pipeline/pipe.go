package pipeline

import (
	"github.com/negamartin/osu2sm/chart"
)

// PipeNode moves charts between buckets without touching them. Its value
// is in its routes: a Nest or Chain on either side lets sub-graphs run in
// the middle of a pipeline, and explicit names bridge distant stages.
type PipeNode struct {
	From BucketID
	Into BucketID
}

// NewPipe returns a pass-through pipe.
func NewPipe() *PipeNode {
	return &PipeNode{From: Auto(), Into: Auto()}
}

func (n *PipeNode) Kind() string { return "Pipe" }

func (n *PipeNode) Buckets() []BucketRef {
	return []BucketRef{
		{BucketInput, &n.From},
		{BucketOutput, &n.Into},
	}
}

func (n *PipeNode) Prepare() error { return nil }

func (n *PipeNode) Apply(ctx *Context) error {
	return ctx.Store.Get(&n.From, func(list []*chart.Chart) error {
		ctx.Store.Put(&n.Into, list)
		return nil
	})
}
