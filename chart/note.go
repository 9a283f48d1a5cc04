package chart

// Note kinds, using the simfile characters directly so serialization is a
// byte copy.
const (
	KindHit  byte = '1'
	KindHead byte = '2'
	KindTail byte = '3'
)

// Note is a single timed event: a tap, a hold head or a hold tail.
// Sustains are represented as a head/tail pair on the same key.
type Note struct {
	Kind byte
	Beat BeatPos
	Key  int
}

// IsHit reports whether the note is a plain tap.
func (n Note) IsHit() bool { return n.Kind == KindHit }

// IsHead reports whether the note starts a hold.
func (n Note) IsHead() bool { return n.Kind == KindHead }

// IsTail reports whether the note ends a hold.
func (n Note) IsTail() bool { return n.Kind == KindTail }
