package goldmark

import "strings"

// fence is an open fenced code block as seen by fenceScanner.
type fence struct {
	char  byte
	run   int
	depth int // blockquote nesting of the opening line
	cont  int // list item content width from the opening line
	// closer is the line prefix a matching closing fence needs to land in
	// the same container as the opener.
	closer string
}

// fenceScanner follows fenced code blocks line by line with CommonMark's
// length rules, so inline code spans and shorter runs inside a block are not
// taken for fences.
type fenceScanner struct {
	open *fence
}

// feed consumes one line and reports whether it belongs to a fenced block,
// including the opening and closing lines.
func (s *fenceScanner) feed(line string) bool {
	if f := s.open; f != nil {
		depth, rest := quotePrefix(line, f.depth)
		switch {
		case depth < f.depth:
			// The blockquote ended and took the block with it.
			s.open = nil
		case f.cont > 0 && !isBlank(rest) && leadingSpaces(rest) < f.cont:
			s.open = nil
		default:
			if f.closedBy(rest) {
				s.open = nil
			}
			return true
		}
	}
	depth, rest := quotePrefix(line, -1)
	quote := line[:len(line)-len(rest)]
	cont := listMarker(rest)
	char, run, indent, info, ok := parseFence(rest[cont:])
	if !ok {
		return false
	}
	if char == '`' && strings.ContainsRune(info, '`') {
		return false
	}
	s.open = &fence{
		char:   char,
		run:    run,
		depth:  depth,
		cont:   cont,
		closer: quote + strings.Repeat(" ", cont+indent),
	}
	return true
}

func (f *fence) closedBy(rest string) bool {
	rest = rest[min(leadingSpaces(rest), f.cont):]
	char, run, _, info, ok := parseFence(rest)
	return ok && char == f.char && run >= f.run && isBlank(info)
}

// parseFence reads a fence run of at least three backticks or tildes after up
// to three spaces of indentation.
func parseFence(s string) (char byte, run, indent int, info string, ok bool) {
	indent = leadingSpaces(s)
	if indent > 3 {
		return 0, 0, 0, "", false
	}
	s = s[indent:]
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0, 0, "", false
	}
	char = s[0]
	for run < len(s) && s[run] == char {
		run++
	}
	if run < 3 {
		return 0, 0, 0, "", false
	}
	return char, run, indent, s[run:], true
}

// quotePrefix strips up to limit blockquote markers (all of them when limit
// is negative) and returns how many it removed.
func quotePrefix(line string, limit int) (int, string) {
	depth := 0
	for limit < 0 || depth < limit {
		n := leadingSpaces(line)
		if n > 3 || !strings.HasPrefix(line[n:], ">") {
			break
		}
		line = strings.TrimPrefix(line[n+1:], " ")
		depth++
	}
	return depth, line
}

// listMarker returns the width of a bullet or ordered list marker plus its
// following space, or 0.
func listMarker(s string) int {
	n := leadingSpaces(s)
	if n > 3 || n == len(s) {
		return 0
	}
	i := n
	switch c := s[i]; {
	case c == '-' || c == '*' || c == '+':
		i++
	case c >= '0' && c <= '9':
		for i < len(s) && i-n < 9 && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == len(s) || (s[i] != '.' && s[i] != ')') {
			return 0
		}
		i++
	default:
		return 0
	}
	if i == len(s) || s[i] != ' ' {
		return 0
	}
	return i + 1
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

func isBlank(s string) bool {
	return strings.TrimRight(s, " \t\r\n") == ""
}

// closeFences returns s with a virtual closing fence appended when a fenced
// block is still open at the end, and reports whether it did. The closer
// repeats the opener's container prefix and run, so a block inside a quote
// or list item is closed within that container.
func closeFences(s string) (string, bool) {
	var sc fenceScanner
	for line := range strings.Lines(s) {
		sc.feed(line)
	}
	f := sc.open
	if f == nil {
		return s, false
	}
	closer := f.closer + strings.Repeat(string(f.char), f.run)
	if !strings.HasSuffix(s, "\n") {
		closer = "\n" + closer
	}
	return s + closer, true
}
