// Package baseline holds the known mismatches a run does not report again.
//
// A baseline file lists one discrepancy per line in the plain form produced
// by render.Line. Lines copied from a wiki report page are accepted too: a
// leading "* " and the <tt> and <nowiki> markup are removed before matching.
package baseline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dshills/dexcheck/internal/render"
	"github.com/dshills/dexcheck/internal/schema"
)

// Baseline is a set of expected discrepancy lines.
type Baseline struct {
	lines map[string]bool
}

var markup = strings.NewReplacer("<tt>", "", "</tt>", "", "<nowiki>", "", "</nowiki>", "")

// normalize reduces a baseline or report line to its plain form.
func normalize(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "* ")
	return strings.TrimSpace(markup.Replace(line))
}

// Load reads the baseline at path. A missing file is an empty baseline.
func Load(path string) (*Baseline, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Baseline{lines: map[string]bool{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	defer f.Close()
	b, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("baseline: %s: %w", path, err)
	}
	return b, nil
}

// Read parses a baseline. Blank lines and lines starting with # are skipped.
func Read(r io.Reader) (*Baseline, error) {
	b := &Baseline{lines: map[string]bool{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := normalize(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.lines[line] = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the number of distinct lines in b.
func (b *Baseline) Len() int { return len(b.lines) }

// Contains reports whether d is a known mismatch.
func (b *Baseline) Contains(d schema.Discrepancy) bool {
	return b.lines[normalize(render.Line(d))]
}

// Filter splits ds into the discrepancies to report and the number matched
// by b. Order is preserved.
func (b *Baseline) Filter(ds []schema.Discrepancy) (kept []schema.Discrepancy, ignored int) {
	kept = make([]schema.Discrepancy, 0, len(ds))
	for _, d := range ds {
		if b.Contains(d) {
			ignored++
			continue
		}
		kept = append(kept, d)
	}
	return kept, ignored
}

// Write writes ds as a baseline that Read accepts.
func Write(w io.Writer, ds []schema.Discrepancy) error {
	bw := bufio.NewWriter(w)
	for _, d := range ds {
		if _, err := fmt.Fprintln(bw, render.Line(d)); err != nil {
			return fmt.Errorf("baseline: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("baseline: write: %w", err)
	}
	return nil
}
