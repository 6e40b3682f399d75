// Package diagnostics filters and deduplicates compiler diagnostic output.
//
// Shader sources carry engine pragmas (target, namespace, entry, option) that
// the downstream compiler does not understand and warns about on every single
// permutation. The printer drops those known-benign lines and emits every
// other line at most once per batch, so a warning shared by hundreds of
// permutations reaches the user exactly once.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

// ignorePatterns is the data-level table of diagnostic lines that are
// expected noise. Kept as a table so new benign warnings are a one-line
// change with a matching test case.
var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`.*: warning X3568: '(target|namespace|entry|option)' : unknown pragma ignored`),
}

// Printer emits deduplicated diagnostic lines for one compilation batch.
// Safe for concurrent use by multiple workers.
type Printer struct {
	mu   sync.Mutex
	seen map[string]struct{}
	out  io.Writer
}

// NewPrinter creates a printer writing to out; a nil writer defaults to
// stdout.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{
		seen: make(map[string]struct{}),
		out:  out,
	}
}

// Print splits text into lines and emits each non-ignored line that has not
// been emitted before in this batch.
func (p *Printer) Print(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || ignored(line) {
			continue
		}

		p.mu.Lock()
		if _, dup := p.seen[line]; !dup {
			p.seen[line] = struct{}{}
			fmt.Fprintln(p.out, line)
		}
		p.mu.Unlock()
	}
}

func ignored(line string) bool {
	for _, pattern := range ignorePatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
