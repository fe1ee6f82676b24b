package material

// scanner walks a material buffer one line at a time and splits the
// current line into whitespace separated words. It never copies text;
// lines and words are substrings of the buffer.
type scanner struct {
	buf  string
	next int // start of the line after the current one, -1 at end

	line string // current line, without the newline
	pos  int    // word cursor inside line
}

func newScanner(buf string) *scanner {
	return &scanner{buf: buf}
}

// nextLine advances to the following line. It returns false once the buffer
// is exhausted. The last line does not need a trailing newline.
func (s *scanner) nextLine() bool {
	if s.next < 0 || (s.next == len(s.buf) && s.next > 0) {
		s.next = -1
		return false
	}

	start := s.next
	end := start
	for end < len(s.buf) && s.buf[end] != '\n' && s.buf[end] != 0 {
		end++
	}

	s.line = s.buf[start:end]
	s.pos = 0

	switch {
	case end >= len(s.buf), s.buf[end] == 0:
		s.next = -1
	default:
		s.next = end + 1
	}
	return true
}

// word skips blanks, tabs and carriage returns and returns the following
// run of non-blank characters. It returns "" at the end of the line.
func (s *scanner) word() string {
	for s.pos < len(s.line) && isBlank(s.line[s.pos]) {
		s.pos++
	}
	start := s.pos
	for s.pos < len(s.line) && !isBlank(s.line[s.pos]) {
		s.pos++
	}
	return s.line[start:s.pos]
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }
