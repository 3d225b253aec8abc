package dispatch

type Kind int

const (
	// KindInvalid is the zero Result returned next to an error.
	KindInvalid Kind = iota
	// KindNoOp means no host matched and no work ran.
	KindNoOp
	KindSingle
	KindMany
)

func (k Kind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindSingle:
		return "single"
	case KindMany:
		return "many"
	default:
		return "invalid"
	}
}

// Result is the shape of a dispatch outcome: one value, an ordered sequence of values,
// or nothing at all.
type Result[R any] struct {
	kind   Kind
	values []R
}

func (r Result[R]) Kind() Kind { return r.kind }

func (r Result[R]) IsNoOp() bool { return r.kind == KindNoOp }

// Single returns the value of a single-host dispatch.
func (r Result[R]) Single() (R, bool) {
	if r.kind != KindSingle {
		var zero R
		return zero, false
	}
	return r.values[0], true
}

// Values returns the results in host order. A single result comes back as a one-element
// slice; a NoOp and the zero Result give nil.
func (r Result[R]) Values() []R {
	if r.kind == KindNoOp || r.kind == KindInvalid {
		return nil
	}
	return r.values
}

// Valid reports whether r came from a successful dispatch.
func (r Result[R]) Valid() bool { return r.kind != KindInvalid }
