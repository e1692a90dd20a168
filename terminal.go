package compositor

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Size is a terminal's dimensions in columns and rows.
type Size struct {
	Width  int
	Height int
}

// Terminal owns the raw-mode/alternate-screen lifecycle of a real tty and
// its resize signal. It is the concrete terminal device the actor runtime
// depends on: size query, mode transitions, and verbatim byte writes.
//
// Grounded on the teacher's Screen type, generalized to a Linux host via
// termios_linux.go alongside the teacher's termios_darwin.go — the teacher
// only ever ran on darwin.
type Terminal struct {
	writer io.Writer
	fd     int

	mu          sync.Mutex
	origTermios *unix.Termios
	rawMode     bool
	mouseOn     bool
	altScreen   bool

	sigChan    chan os.Signal
	resizeChan chan Size
	stopSig    chan struct{}
}

// NewTerminal wraps w (os.Stdout if nil) as a terminal device. Output goes
// to w; size queries and termios changes always use os.Stdout's file
// descriptor.
func NewTerminal(w io.Writer) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	return &Terminal{
		writer:     w,
		fd:         int(os.Stdout.Fd()),
		sigChan:    make(chan os.Signal, 1),
		resizeChan: make(chan Size, 1),
	}
}

// Size returns the terminal's current dimensions.
func (t *Terminal) Size() (Size, error) {
	w, h, err := term.GetSize(t.fd)
	if err != nil {
		return Size{}, fmt.Errorf("compositor: get terminal size: %w", err)
	}
	return Size{Width: w, Height: h}, nil
}

// EnableRawMode disables canonical input processing, echo, and signal
// generation, puts the terminal into 8-bit clean mode, and starts
// watching for SIGWINCH. Idempotent.
func (t *Terminal) EnableRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rawMode {
		return nil
	}

	termios, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("compositor: get termios: %w", err)
	}
	t.origTermios = termios

	raw := *termios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("compositor: set raw mode: %w", err)
	}
	t.rawMode = true

	t.stopSig = make(chan struct{})
	signal.Notify(t.sigChan, syscall.SIGWINCH)
	go t.watchResize()

	return nil
}

// DisableRawMode restores the termios state captured by EnableRawMode and
// stops watching for resize signals. Idempotent.
func (t *Terminal) DisableRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.rawMode {
		return nil
	}

	signal.Stop(t.sigChan)
	close(t.stopSig)

	if t.origTermios != nil {
		if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.origTermios); err != nil {
			return fmt.Errorf("compositor: restore termios: %w", err)
		}
	}
	t.rawMode = false
	return nil
}

// watchResize polls the terminal size on every SIGWINCH and forwards
// changed dimensions to ResizeChan with a non-blocking send.
func (t *Terminal) watchResize() {
	for {
		select {
		case <-t.stopSig:
			return
		case <-t.sigChan:
			size, err := t.Size()
			if err != nil {
				continue
			}
			select {
			case t.resizeChan <- size:
			default:
			}
		}
	}
}

// ResizeChan returns the channel on which resize events are delivered.
func (t *Terminal) ResizeChan() <-chan Size { return t.resizeChan }

// EnterAlternateScreen switches to the terminal's alternate screen buffer.
func (t *Terminal) EnterAlternateScreen() error {
	t.altScreen = true
	return t.writeString("\x1b[?1049h")
}

// LeaveAlternateScreen returns to the terminal's primary screen buffer.
func (t *Terminal) LeaveAlternateScreen() error {
	t.altScreen = false
	return t.writeString("\x1b[?1049l")
}

// EnableMouseCapture turns on SGR mouse event reporting.
func (t *Terminal) EnableMouseCapture() error {
	t.mouseOn = true
	return t.writeString("\x1b[?1000h\x1b[?1006h")
}

// DisableMouseCapture turns off mouse event reporting.
func (t *Terminal) DisableMouseCapture() error {
	t.mouseOn = false
	return t.writeString("\x1b[?1000l\x1b[?1006l")
}

// EnableBracketedPaste wraps pasted text in ESC [ 2 0 0 ~ / ESC [ 2 0 1 ~
// markers so the input decoder can distinguish paste from typed keys.
func (t *Terminal) EnableBracketedPaste() error {
	return t.writeString("\x1b[?2004h")
}

// DisableBracketedPaste turns off bracketed-paste markers.
func (t *Terminal) DisableBracketedPaste() error {
	return t.writeString("\x1b[?2004l")
}

// HideCursor hides the terminal cursor.
func (t *Terminal) HideCursor() error { return t.writeString("\x1b[?25l") }

// ShowCursor shows the terminal cursor.
func (t *Terminal) ShowCursor() error { return t.writeString("\x1b[?25h") }

// Write writes bytes to the terminal verbatim.
func (t *Terminal) Write(p []byte) (int, error) {
	n, err := t.writer.Write(p)
	if err != nil {
		return n, fmt.Errorf("compositor: terminal write: %w", err)
	}
	return n, nil
}

func (t *Terminal) writeString(s string) error {
	_, err := t.Write([]byte(s))
	return err
}

// Close restores the terminal to its pre-raw-mode state: bracketed paste
// off, mouse capture off, cursor shown, alternate screen off, raw mode
// off. Safe to call more than once and safe to call after a partial
// setup failure.
func (t *Terminal) Close() error {
	_ = t.DisableBracketedPaste()
	if t.mouseOn {
		_ = t.DisableMouseCapture()
	}
	_ = t.ShowCursor()
	if t.altScreen {
		_ = t.LeaveAlternateScreen()
	}
	return t.DisableRawMode()
}
