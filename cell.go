// Package compositor implements a zero-flicker terminal compositor: a packed
// cell/buffer model, a differential ANSI renderer, and an actor-based
// concurrency runtime for streaming high-throughput terminal output while
// accepting user input concurrently.
package compositor

import "encoding/binary"

// Modifier is a bitset of text attributes that can be combined.
type Modifier uint8

const (
	ModNone Modifier = 0
	ModBold Modifier = 1 << (iota - 1)
	ModDim
	ModItalic
	ModUnderline
	ModBlink
	ModReverse
	ModHidden
	ModStrikethrough
)

// Has returns true if the modifier set contains attr.
func (m Modifier) Has(attr Modifier) bool { return m&attr != 0 }

// With returns a new modifier set with attr added.
func (m Modifier) With(attr Modifier) Modifier { return m | attr }

// Without returns a new modifier set with attr removed.
func (m Modifier) Without(attr Modifier) Modifier { return m &^ attr }

// CellFlags marks structural properties of a cell that the differ and
// buffer must treat specially.
type CellFlags uint8

const (
	FlagOverflow         CellFlags = 1 << iota // grapheme bytes are a little-endian overflow index
	FlagWideContinuation                       // right half of a double-width grapheme; renders as nothing
)

// Has returns true if the flag set contains f.
func (c CellFlags) Has(f CellFlags) bool { return c&f != 0 }

// Rgb is a 24-bit true color.
type Rgb struct {
	R, G, B uint8
}

// Standard colors for convenience.
var (
	Black   = Rgb{0, 0, 0}
	White   = Rgb{255, 255, 255}
	Red     = Rgb{205, 0, 0}
	Green   = Rgb{0, 205, 0}
	Yellow  = Rgb{205, 205, 0}
	Blue    = Rgb{0, 0, 238}
	Magenta = Rgb{205, 0, 205}
	Cyan    = Rgb{0, 205, 205}
)

// Hex returns an Rgb from a hex value (e.g. 0xFF5500).
func Hex(hex uint32) Rgb {
	return Rgb{
		R: uint8(hex >> 16 & 0xFF),
		G: uint8(hex >> 8 & 0xFF),
		B: uint8(hex & 0xFF),
	}
}

// defaultFg and defaultBg match the empty cell's colors. The compositor has
// no concept of a terminal "default" color distinct from a concrete RGB
// value — the differ always emits explicit 24-bit sequences.
var (
	defaultFg = White
	defaultBg = Black
)

// Cell is the atomic display unit: 16 bytes, four per 64-byte cache line.
//
// Layout (in field order): 4 inline grapheme bytes, 1 grapheme-length byte
// (0 means overflow or continuation), 1 display-width byte, 3 foreground
// bytes, 3 background bytes, 1 modifier byte, 1 flag byte, 2 bytes padding.
// When FlagOverflow is set the 4 grapheme bytes are reinterpreted as a
// little-endian uint32 index into the owning Buffer's overflow table.
type Cell struct {
	grapheme    [4]byte
	graphemeLen uint8
	width       uint8
	Fg          Rgb
	Bg          Rgb
	Modifiers   Modifier
	Flags       CellFlags
	_           [2]byte
}

// EmptyCell is a single space with default colors and no attributes.
var EmptyCell = Cell{
	grapheme:    [4]byte{' '},
	graphemeLen: 1,
	width:       1,
	Fg:          defaultFg,
	Bg:          defaultBg,
}

// NewCell packs a single ASCII/ BMP rune that fits in 4 UTF-8 bytes.
// Panics if r does not fit — callers with arbitrary graphemes should use
// FromGrapheme instead.
func NewCell(r rune) Cell {
	c, ok := FromGrapheme(string(r))
	if !ok {
		panic("compositor: rune does not fit in an inline cell")
	}
	c.Fg, c.Bg = defaultFg, defaultBg
	return c
}

// FromGrapheme builds an inline cell from a grapheme string. Returns
// ok=false if the UTF-8 encoding exceeds 4 bytes — the caller must fall
// back to overflow storage in that case.
func FromGrapheme(g string) (Cell, bool) {
	if len(g) == 0 {
		return EmptyCell, true
	}
	if len(g) > 4 {
		return Cell{}, false
	}
	var c Cell
	copy(c.grapheme[:], g)
	c.graphemeLen = uint8(len(g))
	c.width = uint8(displayWidth(g))
	return c, true
}

// OverflowCell builds a cell whose grapheme bytes encode idx, the index
// into the owning Buffer's overflow table.
func OverflowCell(idx uint32, width uint8) Cell {
	var c Cell
	binary.LittleEndian.PutUint32(c.grapheme[:], idx)
	c.graphemeLen = 0
	c.width = width
	c.Flags |= FlagOverflow
	return c
}

// WideContinuationCell is the right half of a double-width grapheme. It
// carries no content and is always skipped by the differ.
func WideContinuationCell(bg Rgb) Cell {
	return Cell{Bg: bg, Flags: FlagWideContinuation}
}

// WithFg returns a copy of c with the given foreground color.
func (c Cell) WithFg(fg Rgb) Cell { c.Fg = fg; return c }

// WithBg returns a copy of c with the given background color.
func (c Cell) WithBg(bg Rgb) Cell { c.Bg = bg; return c }

// WithModifiers returns a copy of c with the given modifier set.
func (c Cell) WithModifiers(m Modifier) Cell { c.Modifiers = m; return c }

// IsOverflow returns true if the cell's grapheme lives in the overflow table.
func (c Cell) IsOverflow() bool { return c.Flags.Has(FlagOverflow) }

// IsWideContinuation returns true if c is the right half of a wide grapheme.
func (c Cell) IsWideContinuation() bool { return c.Flags.Has(FlagWideContinuation) }

// Width returns the cell's display width: 0 for a continuation, 1 or 2
// otherwise.
func (c Cell) Width() int { return int(c.width) }

// OverflowIndex returns the overflow-table index this cell points to.
// Only meaningful when IsOverflow is true.
func (c Cell) OverflowIndex() uint32 {
	return binary.LittleEndian.Uint32(c.grapheme[:])
}

// InlineGrapheme returns the grapheme's bytes when it is stored inline
// (not overflow, not a continuation).
func (c Cell) InlineGrapheme() string {
	if c.IsOverflow() || c.IsWideContinuation() {
		return ""
	}
	return string(c.grapheme[:c.graphemeLen])
}
