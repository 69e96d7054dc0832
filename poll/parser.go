package poll

import (
	"traffic-lights/timeparse"
	"traffic-lights/types"
)

// Parser turns serial bytes into commands. R, Y, G and D are accepted in any
// case; A followed by six digits configures the timer. Other bytes are
// ignored.
type Parser struct {
	timeMode bool
	buf      [timeparse.Length]byte
	n        int
}

// Feed consumes one byte. It returns ok when a command is complete. A
// non-nil error reports a rejected time value; the parser has already reset.
func (p *Parser) Feed(b byte) (cmd types.Command, ok bool, err error) {
	if p.timeMode {
		return p.feedTime(b)
	}

	switch b {
	case 'A', 'a':
		p.reset()
		p.timeMode = true
		return types.Command{}, false, nil
	case 'D', 'd':
		return types.ToggleDebug(types.SourceSerial), true, nil
	}
	if c, found := types.ColorFromLetter(b); found {
		return types.Activate(c, types.SourceSerial), true, nil
	}
	return types.Command{}, false, nil
}

// InTimeMode reports whether the parser is collecting timer digits.
func (p *Parser) InTimeMode() bool { return p.timeMode }

// Pending returns the digits collected so far in time mode.
func (p *Parser) Pending() string { return string(p.buf[:p.n]) }

func (p *Parser) feedTime(b byte) (types.Command, bool, error) {
	if b == '\r' || b == '\n' {
		p.reset()
		return types.Command{}, false, nil
	}
	p.buf[p.n] = b
	p.n++
	if p.n < len(p.buf) {
		return types.Command{}, false, nil
	}

	seconds, err := timeparse.Parse(p.buf[:])
	p.reset()
	if err != nil {
		return types.Command{}, false, err
	}
	return types.SetTimer(seconds, types.SourceSerial), true, nil
}

func (p *Parser) reset() {
	p.timeMode = false
	p.n = 0
}
