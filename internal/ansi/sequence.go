package ansi

import (
	"io"
	"strconv"
	"strings"

	"vpty/internal/hosterr"
)

const esc byte = 0x1B

// Sequence is either a single passthrough byte (Text) or one or more
// logical effects produced by a single escape introducer (Escape), since a
// single `m` terminator can pack a semicolon-separated parameter list.
type Sequence struct {
	IsEscape bool
	Byte     byte
	Escapes  []Escape
}

// TextSeq wraps a single passthrough byte.
func TextSeq(b byte) Sequence { return Sequence{Byte: b} }

// EscapeSeq wraps the ordered list of effects recognized from one escape.
func EscapeSeq(list []Escape) Sequence { return Sequence{IsEscape: true, Escapes: list} }

// ParseAll consumes the entire buffered byte stream and returns the
// sequences it recognizes. Total except for the truecolor SGR case: on
// that one input it returns everything recognized up to that point
// together with an *hosterr.Error of kind Unsupported, since the rest of
// the stream cannot be losslessly re-rendered. Unrecognized escape
// sequences are silently dropped; bytes outside an escape context pass
// through verbatim in input order.
func ParseAll(data []byte) ([]Sequence, error) {
	var out []Sequence
	i := 0
	for i < len(data) {
		b := data[i]
		if b != esc {
			out = append(out, TextSeq(b))
			i++
			continue
		}
		i++
		if i >= len(data) {
			break
		}
		switch data[i] {
		case '[':
			i++
			escapes, consumed, err := parseCSIFromSlice(data[i:])
			i += consumed
			if len(escapes) > 0 {
				out = append(out, EscapeSeq(escapes))
			}
			if err != nil {
				return out, err
			}
		case '7':
			out = append(out, EscapeSeq([]Escape{SaveCursorPos}))
			i++
		case '8':
			out = append(out, EscapeSeq([]Escape{RestoreCursorPos}))
			i++
		case 'M':
			out = append(out, EscapeSeq([]Escape{CursorMoveOneLineUp}))
			i++
		default:
			i++
		}
	}
	return out, nil
}

// ParseOne reads the minimum number of bytes from r to recognize one
// logical unit: either a single text byte, or a full escape starting with
// ESC and ending at its final byte. Used by the streaming PTY pump. It
// returns io errors from r verbatim (the output pump treats these as
// end-of-stream) and an *hosterr.Error of kind Unsupported for truecolor
// SGR.
func ParseOne(r io.ByteReader) ([]Sequence, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b != esc {
		return []Sequence{TextSeq(b)}, nil
	}
	b2, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch b2 {
	case '[':
		return parseCSIFromReader(r)
	case '7':
		return []Sequence{EscapeSeq([]Escape{SaveCursorPos})}, nil
	case '8':
		return []Sequence{EscapeSeq([]Escape{RestoreCursorPos})}, nil
	case 'M':
		return []Sequence{EscapeSeq([]Escape{CursorMoveOneLineUp})}, nil
	default:
		return nil, nil
	}
}

func isParamByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == ';'
}

// parseCSIFromSlice parses a CSI tail (everything after `ESC [`) out of
// data, returning the recognized escapes, the number of bytes of data it
// consumed, and an error for the truecolor case. A CSI tail that runs off
// the end of data (a truncated sequence) is silently dropped.
func parseCSIFromSlice(data []byte) (escapes []Escape, consumed int, err error) {
	i := 0
	var intermediate byte
	if i < len(data) && (data[i] == '=' || data[i] == '?') {
		intermediate = data[i]
		i++
	}
	start := i
	for i < len(data) && isParamByte(data[i]) {
		i++
	}
	if i >= len(data) {
		return nil, i, nil
	}
	params := data[start:i]
	final := data[i]
	i++
	escapes, err = parseCSIFinal(intermediate, params, final)
	return escapes, i, err
}

func parseCSIFromReader(r io.ByteReader) ([]Sequence, error) {
	var intermediate byte
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b == '=' || b == '?' {
		intermediate = b
		b, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
	}
	var params []byte
	for isParamByte(b) {
		params = append(params, b)
		b, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
	}
	escapes, perr := parseCSIFinal(intermediate, params, b)
	if len(escapes) == 0 {
		return nil, perr
	}
	return []Sequence{EscapeSeq(escapes)}, perr
}

// parseCSIFinal decides the action for one CSI final byte, given the
// accumulated intermediate and parameter bytes. It is the shared grammar
// core behind both parse drivers.
func parseCSIFinal(intermediate byte, params []byte, final byte) ([]Escape, error) {
	switch final {
	case 'm':
		return parseSGR(params)
	case 'A':
		return singleParamEscape(params, CursorUp)
	case 'B':
		return singleParamEscape(params, CursorDown)
	case 'C':
		return singleParamEscape(params, CursorRight)
	case 'D':
		return singleParamEscape(params, CursorLeft)
	case 'E':
		return singleParamEscape(params, CursorToNextLineStart)
	case 'F':
		return singleParamEscape(params, CursorToPastLineStart)
	case 'G':
		return singleParamEscape(params, CursorToCol)
	case 'H':
		return parseMoveCursorTo(params)
	case 'J':
		return parseDisplayErase(params)
	case 'K':
		return parseLineErase(params)
	case 'n':
		if string(params) == "6" {
			return []Escape{RequestCursorPos}, nil
		}
		return nil, nil
	case 's':
		if intermediate == 0 && len(params) == 0 {
			return []Escape{SaveCursorPos}, nil
		}
		return nil, nil
	case 'u':
		if intermediate == 0 && len(params) == 0 {
			return []Escape{RestoreCursorPos}, nil
		}
		return nil, nil
	case 'h':
		return parseModeSet(intermediate, params, true)
	case 'l':
		return parseModeSet(intermediate, params, false)
	default:
		return nil, nil
	}
}

func atoiBytes(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, false
	}
	return n, true
}

func singleParamEscape(params []byte, ctor func(int) Escape) ([]Escape, error) {
	n, ok := atoiBytes(params)
	if !ok {
		return nil, nil
	}
	return []Escape{ctor(n)}, nil
}

func parseMoveCursorTo(params []byte) ([]Escape, error) {
	if len(params) == 0 {
		return []Escape{ZeroCursor}, nil
	}
	parts := strings.Split(string(params), ";")
	if len(parts) != 2 {
		return nil, nil
	}
	line, err1 := strconv.Atoi(parts[0])
	col, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return []Escape{MoveCursorTo(line, col)}, nil
}

func parseDisplayErase(params []byte) ([]Escape, error) {
	switch string(params) {
	case "":
		return []Escape{ClearInDisplay}, nil
	case "0":
		return []Escape{ClearDisplayUntilScreenEnd}, nil
	case "1":
		return []Escape{ClearDisplayUntilScreenStart}, nil
	case "2":
		return []Escape{ClearAll}, nil
	case "3":
		return []Escape{EraseSavedLine}, nil
	default:
		return nil, nil
	}
}

func parseLineErase(params []byte) ([]Escape, error) {
	switch string(params) {
	case "":
		return []Escape{EraseInLine}, nil
	case "0":
		return []Escape{EraseFromCursorToEnd}, nil
	case "1":
		return []Escape{EraseFromCursorToStart}, nil
	case "2":
		return []Escape{EraseLine}, nil
	default:
		return nil, nil
	}
}

// parseSGR implements the `m`-terminated SGR handler: left-to-right over
// the semicolon-separated parameter list, with the 38/48 extended-color
// lookahead and the 22 (reset bold+dim) special case.
func parseSGR(params []byte) ([]Escape, error) {
	if len(params) == 0 {
		return nil, nil
	}
	fields := strings.Split(string(params), ";")
	var out []Escape
	pendingExtended := 0 // 0 none, 1 foreground, 2 background
	for idx := 0; idx < len(fields); idx++ {
		n, ok := parseSGRField(fields[idx])
		if !ok {
			continue
		}
		if pendingExtended != 0 {
			switch n {
			case 5:
				if idx+1 >= len(fields) {
					return out, nil
				}
				id, ok := parseSGRField(fields[idx+1])
				if !ok {
					return out, nil
				}
				if pendingExtended == 1 {
					out = append(out, SetForegroundCustomColor(uint8(id)))
				} else {
					out = append(out, SetBackgroundCustomColor(uint8(id)))
				}
				return out, nil
			case 2:
				return out, hosterr.Unsupported("truecolor")
			default:
				pendingExtended = 0
			}
			continue
		}
		switch n {
		case 38:
			pendingExtended = 1
		case 48:
			pendingExtended = 2
		case 22:
			out = append(out, ResetBold, ResetDim)
		default:
			if kind, ok := sgrByParam[n]; ok {
				out = append(out, Escape{Kind: kind})
			}
		}
	}
	return out, nil
}

// parseSGRField parses one semicolon-separated SGR parameter. An empty
// field (e.g. the middle token in "\x1b[;1m") is not a synonym for "0";
// it contributes nothing.
func parseSGRField(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseModeSet(intermediate byte, params []byte, set bool) ([]Escape, error) {
	n, ok := atoiBytes(params)
	if !ok {
		return nil, nil
	}
	switch intermediate {
	case '=':
		if set {
			kind, ok := screenSetByParam[n]
			if !ok {
				return nil, nil
			}
			return []Escape{{Kind: kind}}, nil
		}
		return []Escape{ResetScreenSet(uint8(n))}, nil
	case '?':
		table := privateModeOn
		if !set {
			table = privateModeOff
		}
		kind, ok := table[n]
		if !ok {
			return nil, nil
		}
		return []Escape{{Kind: kind}}, nil
	default:
		return nil, nil
	}
}
