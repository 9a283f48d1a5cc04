// Package pipeline implements the node graph that drives beatmaps from
// the loader to the simfile writer.
//
// A pipeline is an ordered list of typed nodes. Each node consumes charts
// from input buckets and produces charts into output buckets; routing
// directives (Auto, explicit names, Nest/Chain sub-graphs) are resolved
// once at build time into plain bucket names, so the per-beatmapset walk
// never branches on routing kind.
package pipeline

import (
	"context"
	"fmt"

	"github.com/negamartin/osu2sm/chart"
	"go.uber.org/zap"
)

// BucketKind tags a node's bucket as consuming or producing.
type BucketKind int

const (
	// BucketInput marks a bucket the node reads from.
	BucketInput BucketKind = iota
	// BucketOutput marks a bucket the node writes to.
	BucketOutput
)

type bucketState int

const (
	bucketAuto bucketState = iota
	bucketName
	bucketNull
	bucketNest
	bucketChain
	bucketResolved
)

// BucketID is a routing directive: where a node's input comes from or its
// output goes. Before resolution it is one of Auto (the structurally
// adjacent sibling), an explicit name, Null (discard/empty), or an inline
// sub-graph (Nest or Chain). Resolution rewrites every BucketID into a
// concrete bucket name.
type BucketID struct {
	state bucketState
	name  string
	take  bool
	sub   []Node
}

// Auto routes to the structurally-next sibling: the previous node's output
// for inputs, the next node's input for outputs.
func Auto() BucketID { return BucketID{state: bucketAuto} }

// Name routes to an explicitly named bucket, regardless of declaration
// order.
func Name(name string) BucketID { return BucketID{state: bucketName, name: name} }

// Null is the empty route: inputs read nothing, outputs are discarded.
func Null() BucketID { return BucketID{state: bucketNull} }

// Nest fans the same input into every sub-node independently; every chart
// is duplicated per branch and all branch outputs merge downstream. Used
// to produce several difficulty variants from one source chart.
func Nest(sub ...Node) BucketID { return BucketID{state: bucketNest, sub: sub} }

// Chain threads charts through the sub-nodes in order, as a private
// sub-pipeline, before continuing at the parent's next step.
func Chain(sub ...Node) BucketID { return BucketID{state: bucketChain, sub: sub} }

// Pipe applies a single sub-node in place: sugar for Chain of one. Used to
// nest an Align/Remap/Rekey before a Simultaneous cap.
func Pipe(sub Node) BucketID { return Chain(sub) }

// resolved returns the bucket name and take flag, panicking on an
// unresolved bucket. Unresolved buckets past ResolveBuckets are programmer
// error, not user error.
func (b *BucketID) resolved() (string, bool) {
	if b.state != bucketResolved {
		panic(fmt.Sprintf("node i/o bucket not resolved: %+v", b))
	}
	return b.name, b.take
}

func (b *BucketID) resolvedName() string {
	name, _ := b.resolved()
	return name
}

func (b *BucketID) String() string {
	switch b.state {
	case bucketAuto:
		return "Auto"
	case bucketName:
		return fmt.Sprintf("%q", b.name)
	case bucketNull:
		return "Null"
	case bucketNest:
		return fmt.Sprintf("Nest(%d nodes)", len(b.sub))
	case bucketChain:
		return fmt.Sprintf("Chain(%d nodes)", len(b.sub))
	case bucketResolved:
		if b.take {
			return fmt.Sprintf("%q (take)", b.name)
		}
		return fmt.Sprintf("%q", b.name)
	}
	return "invalid"
}

// BucketRef pairs a bucket with its direction, as yielded by
// Node.Buckets.
type BucketRef struct {
	Kind BucketKind
	ID   *BucketID
}

// Context carries per-walk state into node bodies. One Context exists per
// worker; nodes must not retain it.
type Context struct {
	// Store holds the charts in transit for the current beatmapset.
	Store *ChartStore
	// Log is the walk's structured logger.
	Log *zap.SugaredLogger
	// Seed is the run seed all per-chart generators derive from.
	Seed uint64
	// Permissive downgrades gamemode mismatches from errors to skips.
	Permissive bool
}

// Node is one pipeline stage. The variant set is closed: it is fixed by
// the configuration grammar, not extensible at runtime.
//
// Buckets must yield all input buckets before all output buckets; the
// resolver relies on that order.
type Node interface {
	// Kind names the node variant for configuration and logs.
	Kind() string
	// Buckets exposes the node's routing directives for resolution.
	Buckets() []BucketRef
	// Prepare runs once per node after routing resolution, before any
	// chart is processed. Parameter validation belongs here.
	Prepare() error
	// Apply runs once per beatmapset.
	Apply(ctx *Context) error
}

// Batch is one beatmapset's worth of charts emitted by an entry node,
// together with the globals its walk starts from.
type Batch struct {
	// Source identifies the beatmapset for logs and error isolation.
	Source string
	// Charts are the loaded source charts, ownership passes to the walk.
	Charts []*chart.Chart
	// Globals seed the walk's chart store globals.
	Globals map[string]string
}

// EntryNode is a node that feeds the pipeline from the outside world.
// Entry runs once per run and emits one Batch per beatmapset; each batch
// is then walked through the whole resolved pipeline.
type EntryNode interface {
	Node
	Entry(ctx context.Context, emit func(*Batch) error) error
}

// outputBucket returns the node's single resolved output bucket, or nil.
func outputBucket(n Node) *BucketID {
	for _, ref := range n.Buckets() {
		if ref.Kind == BucketOutput {
			return ref.ID
		}
	}
	return nil
}
