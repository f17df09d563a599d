package fetch

import "fmt"

type hintKind uint8

const (
	hintLast hintKind = iota
	hintExact
	hintUnknown
)

// Hint tells the receiver of an item how many more items follow it.
type Hint struct {
	kind hintKind
	n    uint32
}

var (
	// Last marks the final call of an operation.
	Last = Hint{kind: hintLast}

	// Unknown means more items follow but their number is not tracked.
	Unknown = Hint{kind: hintUnknown}
)

// Exact reports n more items. Exact(0) is Last.
func Exact(n uint32) Hint {
	if n == 0 {
		return Last
	}
	return Hint{kind: hintExact, n: n}
}

// HintFromInt decodes the integer sentinel: positive is exact, 0 is last, negative is unknown.
func HintFromInt(v int) Hint {
	switch {
	case v > 0:
		return Exact(uint32(v))
	case v == 0:
		return Last
	default:
		return Unknown
	}
}

// Int encodes the hint as the integer sentinel used at the callback boundary.
func (h Hint) Int() int {
	switch h.kind {
	case hintExact:
		return int(h.n)
	case hintUnknown:
		return -1
	default:
		return 0
	}
}

func (h Hint) IsLast() bool {
	return h.kind == hintLast
}

func (h Hint) IsUnknown() bool {
	return h.kind == hintUnknown
}

func (h Hint) String() string {
	switch h.kind {
	case hintExact:
		return fmt.Sprintf("exact(%d)", h.n)
	case hintUnknown:
		return "unknown"
	default:
		return "last"
	}
}

// HintPolicy selects the hint carried by non-final items.
type HintPolicy int

const (
	// HintExact reports the exact number of items still owed within the window.
	HintExact HintPolicy = iota

	// HintUnknown reports Unknown until the final item.
	HintUnknown
)

func (p HintPolicy) hint(following uint32) Hint {
	if p == HintUnknown {
		return Unknown
	}
	return Exact(following)
}
