package llm

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// ThinkFilter strips <think> ... </think> ranges from a token stream so
// consumers only see final content. It buffers across chunk boundaries, so a
// tag split over several chunks is still recognized.
type ThinkFilter struct {
	buf     string
	inThink bool
}

// Filter consumes one streamed chunk and returns the displayable part.
func (f *ThinkFilter) Filter(chunk string) string {
	if chunk == "" {
		return ""
	}
	f.buf += chunk
	var out strings.Builder

	for f.buf != "" {
		if !f.inThink {
			start := strings.Index(f.buf, thinkOpen)
			if start == -1 {
				// Hold back a possible partial opening tag at the tail.
				keep := partialTagLen(f.buf, thinkOpen)
				out.WriteString(f.buf[:len(f.buf)-keep])
				f.buf = f.buf[len(f.buf)-keep:]
				return out.String()
			}
			out.WriteString(f.buf[:start])
			f.buf = f.buf[start+len(thinkOpen):]
			f.inThink = true
		} else {
			end := strings.Index(f.buf, thinkClose)
			if end == -1 {
				// Inside a think block; keep only a possible partial closing
				// tag and discard the rest.
				keep := partialTagLen(f.buf, thinkClose)
				f.buf = f.buf[len(f.buf)-keep:]
				return out.String()
			}
			f.buf = f.buf[end+len(thinkClose):]
			f.inThink = false
		}
	}
	return out.String()
}

// Flush returns whatever displayable text remains buffered.
func (f *ThinkFilter) Flush() string {
	if f.inThink {
		f.buf = ""
		return ""
	}
	out := f.buf
	f.buf = ""
	return out
}

// partialTagLen returns the length of the longest suffix of s that is a
// proper prefix of tag.
func partialTagLen(s, tag string) int {
	max := len(tag) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}

// CleanOutput strips everything up to and including a closing think tag and
// collapses blank lines. Applied to a pass's full text before it feeds the
// next pass.
func CleanOutput(raw string) string {
	cleaned := raw
	if end := strings.Index(raw, thinkClose); end != -1 {
		cleaned = raw[end+len(thinkClose):]
	}
	var lines []string
	for _, ln := range strings.Split(cleaned, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
