package console

// Control bytes recognized by the Parser.
const (
	KeyExecute   byte = '\r'
	KeyBackSpace byte = '\b'
	KeyRepeat    byte = '`'
	KeyHelp      byte = '?'
)

// Action is what the console should do after a byte is parsed.
type Action int

const (
	// ActionAppend echoes an ordinary character.
	ActionAppend Action = iota
	// ActionExecute resolves ParseResult.Line.
	ActionExecute
	// ActionOverflow reports the line exceeded the input limit.
	ActionOverflow
	// ActionRepeat repeats the last command.
	ActionRepeat
	// ActionHelp prints the listing.
	ActionHelp
	// ActionErase erases one column.
	ActionErase
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Action Action
	// Char is the ordinary character for ActionAppend.
	Char byte
	// Line is the accumulated line for ActionExecute.
	Line string
	// Overflowed is set when this byte exceeded the input limit.
	Overflowed bool
}

// Resets indicates the accumulator is reset and a prompt is due.
func (r ParseResult) Resets() bool {
	switch r.Action {
	case ActionExecute, ActionOverflow, ActionRepeat, ActionHelp:
		return true
	}
	return false
}

// Parser accumulates an input line across bytes.
// The zero value accumulates up to DefaultLimits().Input bytes.
type Parser struct {
	buf      []byte
	cursor   int
	overflow bool
}

// NewParser creates a Parser holding lines up to size bytes.
func NewParser(size int) *Parser {
	if size <= 0 {
		size = DefaultLimits().Input
	}
	return &Parser{buf: make([]byte, size)}
}

// Line returns the accumulated text.
func (p *Parser) Line() string {
	return string(p.buf[:p.cursor])
}

// Len returns the cursor position.
func (p *Parser) Len() int {
	return p.cursor
}

// Overflowed indicates the line exceeded its limit since last reset.
func (p *Parser) Overflowed() bool {
	return p.overflow
}

// Reset clears the accumulator and the overflow flag.
func (p *Parser) Reset() {
	p.cursor, p.overflow = 0, false
	for i := range p.buf {
		p.buf[i] = 0
	}
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	if p.buf == nil {
		p.buf = make([]byte, DefaultLimits().Input)
	}
	switch b {
	case KeyExecute:
		if p.overflow {
			pr.Action = ActionOverflow
		} else {
			pr.Action, pr.Line = ActionExecute, p.Line()
		}
		p.Reset()
	case KeyRepeat:
		pr.Action = ActionRepeat
		p.Reset()
	case KeyHelp:
		pr.Action = ActionHelp
		p.Reset()
	case KeyBackSpace:
		pr.Action = ActionErase
		if p.cursor > 0 {
			p.cursor--
			p.buf[p.cursor] = 0
		}
	default:
		pr.Action, pr.Char = ActionAppend, b
		if p.cursor >= len(p.buf) {
			p.Reset()
			p.overflow, pr.Overflowed = true, true
		}
		p.buf[p.cursor] = b
		p.cursor++
	}
	return
}
