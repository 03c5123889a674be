// Package diff implements a line-level LCS diff. The engine is pure:
// it reports every line of both inputs as unchanged, added, or removed
// in original file order, and leaves any filtering or rendering to the
// caller.
package diff

import "bytes"

// Kind classifies a line of the diff.
type Kind int

const (
	Unchanged Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Change is one line of the diff.
type Change struct {
	Text string
	Kind Kind
}

// Hunk is a run of consecutive changes of the same kind.
type Hunk struct {
	Kind  Kind
	Lines []string
}

// Engine compares two text contents line by line.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compare aligns old and new line by line using a longest common
// subsequence and returns the full interleaved change list: unchanged
// regions appear exactly where they occur, with removals ordered
// before additions at each divergence. Empty content has zero lines.
func (e *Engine) Compare(old, new []byte) []Change {
	oldLines := splitLines(old)
	newLines := splitLines(new)

	lcs := computeLCS(oldLines, newLines)

	// Walk the matrix backward, building the change list front-first
	// by prepending.
	var changes []Change
	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && bytes.Equal(oldLines[i-1], newLines[j-1]):
			changes = prepend(changes, Change{Text: string(oldLines[i-1]), Kind: Unchanged})
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			changes = prepend(changes, Change{Text: string(newLines[j-1]), Kind: Added})
			j--
		default:
			changes = prepend(changes, Change{Text: string(oldLines[i-1]), Kind: Removed})
			i--
		}
	}

	return changes
}

// computeLCS fills the longest-common-subsequence length matrix for
// the two line slices.
func computeLCS(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if bytes.Equal(oldLines[i-1], newLines[j-1]) {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	return matrix
}

// Group collapses consecutive changes of the same kind into hunks,
// preserving order.
func Group(changes []Change) []Hunk {
	var hunks []Hunk
	for _, c := range changes {
		if n := len(hunks); n > 0 && hunks[n-1].Kind == c.Kind {
			hunks[n-1].Lines = append(hunks[n-1].Lines, c.Text)
			continue
		}
		hunks = append(hunks, Hunk{Kind: c.Kind, Lines: []string{c.Text}})
	}
	return hunks
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(content, []byte{'\n'}), []byte{'\n'})
}

func prepend(changes []Change, c Change) []Change {
	return append([]Change{c}, changes...)
}
