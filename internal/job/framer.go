package job

import "strings"

// LineFramer reassembles discrete lines from text arriving in arbitrary chunk
// boundaries. Both LF and CRLF terminators are handled; a trailing fragment
// with no terminator is buffered until more data completes it or Flush is
// called at end of stream.
type LineFramer struct {
	partial strings.Builder
}

// NewLineFramer returns an empty framer.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Push consumes one chunk and returns the complete lines it finished, in
// order, terminators stripped.
func (f *LineFramer) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}

	var lines []string
	for {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			f.partial.WriteString(chunk)
			return lines
		}
		line := chunk[:i]
		if f.partial.Len() > 0 {
			line = f.partial.String() + line
			f.partial.Reset()
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
		chunk = chunk[i+1:]
	}
}

// Flush returns the buffered trailing fragment at end of stream. A genuinely
// empty fragment yields ok=false and produces no line.
func (f *LineFramer) Flush() (line string, ok bool) {
	if f.partial.Len() == 0 {
		return "", false
	}
	line = strings.TrimSuffix(f.partial.String(), "\r")
	f.partial.Reset()
	if line == "" {
		return "", false
	}
	return line, true
}
