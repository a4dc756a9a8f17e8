package loader

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bannerRE = regexp.MustCompile(`risky-b([0-9]+)$`)
	statusRE = regexp.MustCompile(`^([a-z])\s+([0-9a-fA-F]+)\s*$`)
	errorRE  = regexp.MustCompile(`^e:\s+(.+)$`)
	rowRE    = regexp.MustCompile(`^([0-9a-fA-F]+):((?:\s+[0-9a-fA-F]+)+)\s*$`)
)

// FormatCommand formats a command line without its terminator.
func FormatCommand(code byte, args ...uint32) string {
	var sb strings.Builder
	sb.WriteByte(code)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatUint(uint64(arg), 16))
	}
	return sb.String()
}

// ParseStatus parses a status line "<code> <hex>".
func ParseStatus(line string) (code byte, val uint32, ok bool) {
	m := statusRE.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(m[2], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return m[1][0], uint32(v), true
}

// ParseError extracts the message of an "e: <msg>" line.
func ParseError(line string) (string, bool) {
	if m := errorRE.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// ParseBanner extracts the version from a line ending with the banner.
func ParseBanner(line string) (uint32, bool) {
	m := bannerRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ParseDumpRow parses a dump row into its address and bytes.
func ParseDumpRow(line string) (uint32, []byte, bool) {
	m := rowRE.FindStringSubmatch(line)
	if m == nil {
		return 0, nil, false
	}
	addr, err := strconv.ParseUint(m[1], 16, 32)
	if err != nil {
		return 0, nil, false
	}
	fields := strings.Fields(m[2])
	data := make([]byte, len(fields))
	for i, field := range fields {
		b, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return 0, nil, false
		}
		data[i] = byte(b)
	}
	return uint32(addr), data, true
}
