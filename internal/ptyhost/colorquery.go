package ptyhost

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// detectOSCColors caches the real controlling terminal's foreground and
// background colors as X11 rgb: strings, queried once during Open, after
// raw mode has been engaged.
func (s *Session) detectOSCColors() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	output := termenv.NewOutput(os.Stdout)
	if fg := output.ForegroundColor(); fg != nil {
		s.oscForeground = colorToX11(fg)
	}
	if bg := output.BackgroundColor(); bg != nil {
		s.oscBackground = colorToX11(bg)
	}
}

// RespondOSCColors answers an OSC 10/11 color query seen in a PTY-read
// chunk by writing the cached X11 color string directly to the PTY
// master, matching the literal query bytes rather than routing them
// through the escape taxonomy (OSC sequences aren't part of it). The
// chunk is still independently handed to the ANSI parser afterward,
// which — not recognizing OSC — passes each of its bytes through as
// Text.
func (s *Session) RespondOSCColors(data []byte) {
	if s.oscForeground != "" && bytes.Contains(data, []byte("\x1b]10;?")) {
		fmt.Fprintf(s.ptmx, "\x1b]10;%s\x1b\\", s.oscForeground)
	}
	if s.oscBackground != "" && bytes.Contains(data, []byte("\x1b]11;?")) {
		fmt.Fprintf(s.ptmx, "\x1b]11;%s\x1b\\", s.oscBackground)
	}
}

// colorToX11 converts a termenv.Color to the X11 "rgb:RRRR/GGGG/BBBB"
// format OSC 10/11 replies use.
func colorToX11(c termenv.Color) string {
	if c == nil {
		return ""
	}
	if rgb, ok := c.(termenv.RGBColor); ok {
		hex := string(rgb)
		if len(hex) == 7 && hex[0] == '#' {
			r, _ := strconv.ParseUint(hex[1:3], 16, 8)
			g, _ := strconv.ParseUint(hex[3:5], 16, 8)
			b, _ := strconv.ParseUint(hex[5:7], 16, 8)
			return fmt.Sprintf("rgb:%04x/%04x/%04x", r*0x101, g*0x101, b*0x101)
		}
	}
	rgb := termenv.ConvertToRGB(c)
	r := uint16(rgb.R*255+0.5) * 0x101
	g := uint16(rgb.G*255+0.5) * 0x101
	b := uint16(rgb.B*255+0.5) * 0x101
	return fmt.Sprintf("rgb:%04x/%04x/%04x", r, g, b)
}
