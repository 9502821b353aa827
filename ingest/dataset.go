package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedRecord is returned for dataset lines that fail to parse as
// valid JSON or are missing required fields. Such lines are skipped and
// counted; they never abort an ingestion run.
var ErrMalformedRecord = errors.New("malformed dataset record")

// Paper is one research-paper metadata record from the dataset. The
// dataset is the source of truth; papers are never mutated here.
type Paper struct {
	ID         string
	Categories []string
	Title      string
	Abstract   string
}

// paperRecord is the wire shape of one dataset line. Categories arrive as
// a single space-delimited string of tags.
type paperRecord struct {
	ID         string `json:"id"`
	Categories string `json:"categories"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
}

// ParsePaper parses one JSON line of the dataset.
func ParsePaper(line []byte) (*Paper, error) {
	var record paperRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "invalid JSON: %v", err)
	}
	if record.ID == "" {
		return nil, errors.Wrap(ErrMalformedRecord, "missing id")
	}
	return &Paper{
		ID:         record.ID,
		Categories: strings.Fields(record.Categories),
		Title:      record.Title,
		Abstract:   record.Abstract,
	}, nil
}

// MainText builds the text embedded into the main namespace: trimmed title
// and abstract joined by a space, embedded newlines normalized to spaces.
func (p *Paper) MainText() string {
	title := normalize(p.Title)
	abstract := normalize(p.Abstract)
	if title == "" {
		return abstract
	}
	if abstract == "" {
		return title
	}
	return title + " " + abstract
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}

// maxLineSize bounds a single dataset line; abstracts are a few KB, so
// 1 MiB leaves plenty of headroom.
const maxLineSize = 1 << 20

// Scanner streams papers from a line-delimited JSON dataset one at a time.
// The snapshot is far too large to hold in memory at once.
type Scanner struct {
	scanner *bufio.Scanner
	line    int
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Scanner{scanner: scanner}
}

// Line returns the 1-based number of the last line read.
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next paper in the stream. It returns io.EOF when the
// stream is exhausted and a MalformedRecord error for unparseable lines;
// the caller may keep calling Next after a malformed line.
func (s *Scanner) Next() (*Paper, error) {
	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		paper, err := ParsePaper([]byte(line))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", s.line)
		}
		return paper, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read dataset")
	}
	return nil, io.EOF
}
