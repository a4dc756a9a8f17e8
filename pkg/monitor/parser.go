package monitor

// MaxArgs is the maximum number of hex arguments of a command.
const MaxArgs = 3

// Command is a parsed command line.
type Command struct {
	// Code is the command character, 0 for an empty line.
	Code byte
	// Args holds the parsed arguments, zero where absent.
	Args [MaxArgs]uint32
	// Count is 1 for the code plus the number of parsed arguments,
	// or 0 for an empty line.
	Count int
}

// NumArgs returns the number of parsed arguments.
func (c Command) NumArgs() int {
	if c.Count == 0 {
		return 0
	}
	return c.Count - 1
}

// Parser tokenizes a command line. A zero byte, or the end of the line,
// acts as the terminator.
type Parser struct {
	line []byte
	pos  int
}

// NewParser creates a Parser positioned at the start of line.
func NewParser(line []byte) *Parser {
	return &Parser{line: line}
}

// Cursor returns how far the line has been consumed.
func (p *Parser) Cursor() int {
	return p.pos
}

func (p *Parser) peek() byte {
	if p.pos < len(p.line) {
		return p.line[p.pos]
	}
	return 0
}

// End reports whether the cursor sits at the terminator.
func (p *Parser) End() bool {
	return p.peek() == 0
}

func (p *Parser) skipSpace() {
	for isSpace(p.peek()) {
		p.pos++
	}
}

// ParseHex accumulates hex digits into a 32-bit value. More than 8 digits
// wrap silently. It reports whether at least one digit was consumed and
// always skips trailing whitespace.
func (p *Parser) ParseHex() (uint32, bool) {
	var val uint32
	found := false
	for {
		c := p.peek()
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = 10 + c - 'a'
		case c >= 'A' && c <= 'F':
			d = 10 + c - 'A'
		default:
			p.skipSpace()
			return val, found
		}
		val = val<<4 | uint32(d)
		found = true
		p.pos++
	}
}

// ParseCommand parses the code and up to MaxArgs hex arguments, stopping at
// the first token that is not hex.
func (p *Parser) ParseCommand() Command {
	p.pos = 0
	cmd := Command{Code: p.peek()}
	if cmd.Code == 0 {
		return cmd
	}

	p.pos = 1
	p.skipSpace()
	cmd.Count = 1
	for i := range cmd.Args {
		val, ok := p.ParseHex()
		if !ok {
			break
		}
		cmd.Args[i] = val
		cmd.Count++
	}
	return cmd
}
