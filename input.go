package compositor

import (
	"bufio"
	"fmt"
	"io"
)

// KeyType identifies the category of a decoded key.
type KeyType uint8

const (
	KeyChar KeyType = iota
	KeyFunction
	KeyBackspace
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyBackTab
	KeyDelete
	KeyInsert
	KeyEsc
	KeyNull
)

// KeyCode is a decoded key: either a printable rune (KeyChar), a function
// key number (KeyFunction), or one of the named control keys.
type KeyCode struct {
	Type KeyType
	Char rune
	Func uint8
}

// KeyModifiers are the four modifier bits the spec preserves regardless
// of platform convention.
type KeyModifiers struct {
	Shift   bool
	Control bool
	Alt     bool
	Super   bool
}

// Any reports whether any modifier is held.
func (m KeyModifiers) Any() bool {
	return m.Shift || m.Control || m.Alt || m.Super
}

// MouseButton identifies which mouse button a mouse event concerns.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// MouseEvent carries a mouse event's position, button, and modifiers.
type MouseEvent struct {
	X, Y      int
	Button    MouseButton
	HasButton bool
	Modifiers KeyModifiers
}

// EventKind discriminates InputEvent's variant.
type EventKind uint8

const (
	EventKey EventKind = iota
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventMouseScroll
	EventResize
	EventFocusGained
	EventFocusLost
	EventPaste
	EventError
	EventShutdown
)

// InputEvent is the tagged union the input actor sends on its output
// channel. Only the fields relevant to Kind are populated.
type InputEvent struct {
	Kind        EventKind
	Key         KeyCode
	Modifiers   KeyModifiers
	Mouse       MouseEvent
	ScrollDelta int
	Width       int
	Height      int
	Paste       string
	Err         error
}

// Decoder converts a raw byte stream from a terminal in raw mode into
// InputEvent values: CSI cursor keys, SGR mouse reports, bracketed
// paste, and literal/control characters. It has no notion of terminal
// resize — SIGWINCH delivery is Terminal's concern and is merged into
// the input stream by Engine.PollInput/WaitInput, not decoded here.
//
// After an ESC byte the decoder reads one more byte: `[` or `O` starts a
// CSI/SS3 sequence, and any other byte is decoded as that key with Alt
// held. A bare Escape keypress is reported only when that read fails
// (for example at end of stream); on a stream with nothing queued behind
// the ESC byte, Next blocks until the next byte arrives, same as the
// underlying Read.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r (typically a cancelreader.Reader over the raw tty)
// as an input decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads and decodes exactly one event, blocking until a full event
// is available or the underlying reader returns an error (including a
// cancellation unblocking a pending read).
func (d *Decoder) Next() (InputEvent, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return InputEvent{}, err
	}

	switch {
	case b == 0x1b:
		return d.decodeEscape()
	case b == '\r' || b == '\n':
		return keyEvent(KeyCode{Type: KeyEnter}, KeyModifiers{}), nil
	case b == 0x7f || b == 0x08:
		return keyEvent(KeyCode{Type: KeyBackspace}, KeyModifiers{}), nil
	case b == '\t':
		return keyEvent(KeyCode{Type: KeyTab}, KeyModifiers{}), nil
	case b == 0x00:
		return keyEvent(KeyCode{Type: KeyNull}, KeyModifiers{}), nil
	case b < 0x20:
		// C0 control byte: Ctrl+letter, e.g. 0x03 is Ctrl+C.
		return keyEvent(KeyCode{Type: KeyChar, Char: rune(b + 0x60)}, KeyModifiers{Control: true}), nil
	default:
		r, err := d.decodeRune(b)
		if err != nil {
			return InputEvent{}, err
		}
		return keyEvent(KeyCode{Type: KeyChar, Char: r}, KeyModifiers{}), nil
	}
}

func keyEvent(code KeyCode, mods KeyModifiers) InputEvent {
	return InputEvent{Kind: EventKey, Key: code, Modifiers: mods}
}

// decodeRune reassembles a multi-byte UTF-8 rune given its lead byte,
// already consumed from the stream.
func (d *Decoder) decodeRune(lead byte) (rune, error) {
	var size int
	switch {
	case lead&0x80 == 0:
		return rune(lead), nil
	case lead&0xE0 == 0xC0:
		size = 1
	case lead&0xF0 == 0xE0:
		size = 2
	case lead&0xF8 == 0xF0:
		size = 3
	default:
		return 0xFFFD, nil
	}
	buf := make([]byte, size+1)
	buf[0] = lead
	for i := 0; i < size; i++ {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i+1] = b
	}
	r := []rune(string(buf))
	if len(r) == 0 {
		return 0xFFFD, nil
	}
	return r[0], nil
}

// decodeEscape handles everything following a lone ESC byte: CSI (`[`),
// SS3 (`O`), or a bare Escape keypress.
func (d *Decoder) decodeEscape() (InputEvent, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return keyEvent(KeyCode{Type: KeyEsc}, KeyModifiers{}), nil
	}

	switch b {
	case '[':
		return d.decodeCSI()
	case 'O':
		return d.decodeSS3()
	default:
		// Alt+<key>: ESC followed directly by a printable byte.
		if err := d.r.UnreadByte(); err != nil {
			return InputEvent{}, err
		}
		ev, err := d.Next()
		if err != nil {
			return InputEvent{}, err
		}
		ev.Modifiers.Alt = true
		return ev, nil
	}
}

// decodeSS3 handles the SS3-prefixed arrow/function keys some terminals
// emit in application-cursor-key mode.
func (d *Decoder) decodeSS3() (InputEvent, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return InputEvent{}, err
	}
	switch b {
	case 'A':
		return keyEvent(KeyCode{Type: KeyUp}, KeyModifiers{}), nil
	case 'B':
		return keyEvent(KeyCode{Type: KeyDown}, KeyModifiers{}), nil
	case 'C':
		return keyEvent(KeyCode{Type: KeyRight}, KeyModifiers{}), nil
	case 'D':
		return keyEvent(KeyCode{Type: KeyLeft}, KeyModifiers{}), nil
	case 'H':
		return keyEvent(KeyCode{Type: KeyHome}, KeyModifiers{}), nil
	case 'F':
		return keyEvent(KeyCode{Type: KeyEnd}, KeyModifiers{}), nil
	default:
		if b >= 'P' && b <= 'S' {
			return keyEvent(KeyCode{Type: KeyFunction, Func: 1 + (b - 'P')}, KeyModifiers{}), nil
		}
		return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: unrecognized SS3 sequence ESC O %c", b)}, nil
	}
}

// decodeCSI handles everything following `ESC [`: cursor keys, bracketed
// paste markers, SGR mouse reports, and the numeric-parameter forms used
// for Home/End/PageUp/PageDown/Delete/Insert and modified cursor keys.
func (d *Decoder) decodeCSI() (InputEvent, error) {
	var params []int
	cur := -1
	private := byte(0)

	b, err := d.r.ReadByte()
	if err != nil {
		return InputEvent{}, err
	}
	if b == '<' {
		return d.decodeSGRMouse()
	}
	if b == '?' {
		private = b
		if b, err = d.r.ReadByte(); err != nil {
			return InputEvent{}, err
		}
	}

	for {
		switch {
		case b >= '0' && b <= '9':
			if cur < 0 {
				cur = 0
			}
			cur = cur*10 + int(b-'0')
		case b == ';':
			params = append(params, maxParam(cur))
			cur = -1
		default:
			if cur >= 0 {
				params = append(params, cur)
			}
			return d.finishCSI(b, params, private)
		}
		if b, err = d.r.ReadByte(); err != nil {
			return InputEvent{}, err
		}
	}
}

func maxParam(cur int) int {
	if cur < 0 {
		return 0
	}
	return cur
}

func modifiersFromParam(n int) KeyModifiers {
	if n <= 0 {
		return KeyModifiers{}
	}
	bits := n - 1
	return KeyModifiers{
		Shift:   bits&1 != 0,
		Alt:     bits&2 != 0,
		Control: bits&4 != 0,
		Super:   bits&8 != 0,
	}
}

func (d *Decoder) finishCSI(final byte, params []int, private byte) (InputEvent, error) {
	mods := KeyModifiers{}
	if len(params) >= 2 {
		mods = modifiersFromParam(params[1])
	}

	switch final {
	case 'A':
		return keyEvent(KeyCode{Type: KeyUp}, mods), nil
	case 'B':
		return keyEvent(KeyCode{Type: KeyDown}, mods), nil
	case 'C':
		return keyEvent(KeyCode{Type: KeyRight}, mods), nil
	case 'D':
		return keyEvent(KeyCode{Type: KeyLeft}, mods), nil
	case 'H':
		return keyEvent(KeyCode{Type: KeyHome}, mods), nil
	case 'F':
		return keyEvent(KeyCode{Type: KeyEnd}, mods), nil
	case 'Z':
		return keyEvent(KeyCode{Type: KeyBackTab}, KeyModifiers{Shift: true}), nil
	case 'I':
		return InputEvent{Kind: EventFocusGained}, nil
	case 'O':
		return InputEvent{Kind: EventFocusLost}, nil
	case '~':
		return d.finishTilde(params, private)
	default:
		return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: unrecognized CSI final byte %q", final)}, nil
	}
}

// finishTilde handles the `ESC [ N ~` family (Home/End/PageUp/PageDown/
// Delete/Insert/function keys) and the bracketed-paste start/end markers
// 200/201.
func (d *Decoder) finishTilde(params []int, private byte) (InputEvent, error) {
	if len(params) == 0 {
		return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: CSI ~ with no parameter")}, nil
	}
	mods := KeyModifiers{}
	if len(params) >= 2 {
		mods = modifiersFromParam(params[1])
	}

	if private == '?' {
		return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: unsupported private CSI ~ sequence")}, nil
	}

	switch params[0] {
	case 200:
		return d.decodePaste()
	case 201:
		// Stray paste-end marker with no matching start: ignore by
		// reporting an empty paste rather than erroring.
		return InputEvent{Kind: EventPaste, Paste: ""}, nil
	case 1, 7:
		return keyEvent(KeyCode{Type: KeyHome}, mods), nil
	case 4, 8:
		return keyEvent(KeyCode{Type: KeyEnd}, mods), nil
	case 2:
		return keyEvent(KeyCode{Type: KeyInsert}, mods), nil
	case 3:
		return keyEvent(KeyCode{Type: KeyDelete}, mods), nil
	case 5:
		return keyEvent(KeyCode{Type: KeyPageUp}, mods), nil
	case 6:
		return keyEvent(KeyCode{Type: KeyPageDown}, mods), nil
	case 15:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 5}, mods), nil
	case 17:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 6}, mods), nil
	case 18:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 7}, mods), nil
	case 19:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 8}, mods), nil
	case 20:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 9}, mods), nil
	case 21:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 10}, mods), nil
	case 23:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 11}, mods), nil
	case 24:
		return keyEvent(KeyCode{Type: KeyFunction, Func: 12}, mods), nil
	default:
		return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: unrecognized CSI ~ parameter %d", params[0])}, nil
	}
}

// decodePaste reads raw bytes up to the bracketed-paste end marker
// `ESC [ 2 0 1 ~` and returns them unmodified — the spec's resolved open
// question leaves sanitization to the application.
func (d *Decoder) decodePaste() (InputEvent, error) {
	const endMarker = "\x1b[201~"
	var content []byte
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return InputEvent{}, err
		}
		content = append(content, b)
		if len(content) >= len(endMarker) && string(content[len(content)-len(endMarker):]) == endMarker {
			content = content[:len(content)-len(endMarker)]
			return InputEvent{Kind: EventPaste, Paste: string(content)}, nil
		}
	}
}

// decodeSGRMouse handles `ESC [ < Cb ; Cx ; Cy M` (press/move) or `m`
// (release) mouse reporting.
func (d *Decoder) decodeSGRMouse() (InputEvent, error) {
	var params [3]int
	paramIdx := 0
	cur := 0
	haveDigit := false

	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return InputEvent{}, err
		}
		switch {
		case b >= '0' && b <= '9':
			cur = cur*10 + int(b-'0')
			haveDigit = true
		case b == ';':
			if paramIdx < len(params) {
				params[paramIdx] = cur
			}
			paramIdx++
			cur = 0
			haveDigit = false
		case b == 'M' || b == 'm':
			if paramIdx < len(params) && haveDigit {
				params[paramIdx] = cur
			}
			return buildMouseEvent(params[0], params[1], params[2], b == 'M'), nil
		default:
			return InputEvent{Kind: EventError, Err: fmt.Errorf("compositor: malformed SGR mouse sequence")}, nil
		}
	}
}

func buildMouseEvent(cb, x, y int, pressed bool) InputEvent {
	mods := KeyModifiers{
		Shift:   cb&4 != 0,
		Alt:     cb&8 != 0,
		Control: cb&16 != 0,
	}
	isMotion := cb&32 != 0
	isScroll := cb&64 != 0
	buttonBits := cb & 3

	ev := InputEvent{
		Mouse: MouseEvent{X: x - 1, Y: y - 1, Modifiers: mods},
	}

	if isScroll {
		ev.Kind = EventMouseScroll
		if buttonBits == 0 {
			ev.ScrollDelta = 1
		} else {
			ev.ScrollDelta = -1
		}
		ev.Mouse.X, ev.Mouse.Y = x-1, y-1
		return ev
	}

	if isMotion {
		ev.Kind = EventMouseMove
		if buttonBits != 3 {
			ev.Mouse.Button = mouseButtonFromBits(buttonBits)
			ev.Mouse.HasButton = true
		}
		return ev
	}

	ev.Mouse.Button = mouseButtonFromBits(buttonBits)
	ev.Mouse.HasButton = buttonBits != 3
	if pressed {
		ev.Kind = EventMouseDown
	} else {
		ev.Kind = EventMouseUp
	}
	return ev
}

func mouseButtonFromBits(bits int) MouseButton {
	switch bits {
	case 1:
		return MouseMiddle
	case 2:
		return MouseRight
	default:
		return MouseLeft
	}
}
