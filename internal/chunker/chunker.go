// Package chunker splits raw document text into overlapping windows for ingestion.
package chunker

// Default window parameters, in characters.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter produces overlapping windows over a text. Windows prefer to end on
// a paragraph break, then a sentence end, then a word break, falling back to a
// hard cut. Every character of the input belongs to at least one window, and
// each window starts exactly `overlap` characters before the previous window's
// end (the final window is simply whatever remains).
type Splitter struct {
	size    int
	overlap int
}

// New creates a splitter. Non-positive parameters fall back to defaults, and
// overlap is clamped below size so every step makes progress.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Splitter{size: size, overlap: overlap}
}

// boundaries in preference order: paragraph, line, sentence end, word break.
var boundaries = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Split returns the windows for text. Empty input yields no windows; input no
// longer than one window yields the text verbatim.
func (s *Splitter) Split(text string) []string {
	r := []rune(text)
	n := len(r)
	if n == 0 {
		return nil
	}
	if n <= s.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.size
		if end >= n {
			chunks = append(chunks, string(r[start:n]))
			break
		}
		end = s.cut(r, start, end)
		chunks = append(chunks, string(r[start:end]))
		start = end - s.overlap
	}
	return chunks
}

// cut picks the window end: the position just after the last preferred
// boundary inside the overlap-sized tail of the window. A boundary is only
// usable if stepping back by the overlap from it still advances past start.
// With no usable boundary the window is cut hard at start+size.
func (s *Splitter) cut(r []rune, start, end int) int {
	lo := end - s.overlap
	if lo <= start {
		lo = start + 1
	}

	for _, sep := range boundaries {
		if b := lastBoundary(r, lo, end, sep); b > start+s.overlap {
			return b
		}
	}
	return end
}

// lastBoundary returns the rune index just after the last occurrence of sep
// that ends at or before hi and starts at or after lo, or -1.
func lastBoundary(r []rune, lo, hi int, sep []rune) int {
	for i := hi - len(sep); i >= lo; i-- {
		if matchAt(r, i, sep) {
			return i + len(sep)
		}
	}
	return -1
}

func matchAt(r []rune, i int, sep []rune) bool {
	if i+len(sep) > len(r) {
		return false
	}
	for j, c := range sep {
		if r[i+j] != c {
			return false
		}
	}
	return true
}
