package monitor

// Command codes.
const (
	CodeInfo  byte = 'i'
	CodeEcho  byte = 'e'
	CodeBoot  byte = 'b'
	CodeDump  byte = 'm'
	CodeCopy  byte = 'c'
	CodePatch byte = 'p'

	// codeCapacity prefixes the buffer capacity line of the info command.
	codeCapacity byte = 'k'
)

// Dispatcher executes parsed command lines.
type Dispatcher struct {
	Config  *Config
	Session *Session
	Memory  AddressSpace
	Out     Writer
	// Boot is invoked for the boot command; it does not return on hardware.
	Boot func(addr uint32)
}

// Dispatch parses and runs line. It returns true when the line matched a
// command; a line that matches nothing produces no output at all.
func (d *Dispatcher) Dispatch(line []byte) bool {
	p := NewParser(line)
	cmd := p.ParseCommand()
	end := p.End()
	n := cmd.Count
	a := cmd.Args

	var status uint32
	switch {
	case cmd.Code == CodeInfo && n == 1 && end:
		d.Out.SendLine(d.Config.Banner())
		d.Out.SendStatus(codeCapacity, BufferSize)
		d.Out.SendStatus(CodeBoot, d.Config.BootAddr)
		status = Version

	case cmd.Code == CodeEcho && n == 1 && end:
		d.Session.Echo = !d.Session.Echo
		if d.Session.Echo {
			status = 1
		}

	case cmd.Code == CodeBoot && n >= 1 && n <= 2 && end:
		addr := d.Config.BootAddr
		if n >= 2 {
			addr = a[0]
		}
		d.Boot(addr)
		return true

	case cmd.Code == CodeDump && n >= 1 && n <= 3 && end:
		start := d.Session.LastAddress
		if n >= 2 {
			start = a[0]
		}
		stop := start + DumpDefaultLength
		if n >= 3 {
			stop = a[1]
		}
		status = Dump(d.Out, d.Memory, start, stop)
		d.Session.LastAddress = stop

	// copy and patch accept trailing input after their arguments.
	case cmd.Code == CodeCopy && n == 4:
		status = Copy(d.Memory, a[0], a[1], a[2])

	case cmd.Code == CodePatch && n >= 2:
		status = Patch(d.Memory, a[0], uint32(n-2), byte(a[1]), byte(a[2]), p)

	default:
		return false
	}

	d.Out.SendStatus(cmd.Code, status)
	return true
}
