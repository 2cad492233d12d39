package retrieval

import "strings"

// Splitter cuts schema text into bounded, overlapping chunks aligned to
// structural boundaries. Separators are tried in priority order; when one
// splits the text it stays attached as a prefix of the following piece so
// every chunk keeps its declaration keyword.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 80
)

// DefaultSeparators order definition-keyword boundaries before generic
// whitespace so chunks stay topically coherent.
var DefaultSeparators = []string{
	"\ntype ",
	"\ninterface ",
	"\nenum ",
	"\ninput ",
	"\nunion ",
	"\nscalar ",
	"\ndirective ",
	"\nextend ",
	"\n\n",
	"\n",
	" ",
	"",
}

// NewSplitter returns a splitter with the default size, overlap and
// separator priority.
func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:    defaultChunkSize,
		ChunkOverlap: defaultChunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the ordered chunk sequence for text. Blank input yields no
// chunks. Splitting the same text twice yields the same sequence.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []string
	for _, chunk := range s.split(text, s.Separators) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			separator = candidate
			rest = separators[i+1:]
			break
		}
	}
	pieces := cutKeepingSeparator(text, separator)

	var chunks []string
	var window []string
	for _, piece := range pieces {
		if len(piece) <= s.ChunkSize {
			window = append(window, piece)
			continue
		}
		if len(window) > 0 {
			chunks = append(chunks, s.merge(window)...)
			window = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(window) > 0 {
		chunks = append(chunks, s.merge(window)...)
	}
	return chunks
}

// merge packs adjacent pieces into chunks of at most ChunkSize characters,
// carrying at most ChunkOverlap trailing characters into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0
	for _, piece := range pieces {
		if total+len(piece) > s.ChunkSize && total > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for len(current) > 0 && (total > s.ChunkOverlap || total+len(piece) > s.ChunkSize) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += len(piece)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

func cutKeepingSeparator(text, separator string) []string {
	if separator == "" {
		return strings.Split(text, "")
	}
	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			part = separator + part
		}
		if part == "" {
			continue
		}
		pieces = append(pieces, part)
	}
	return pieces
}
