// Package trace reads conditional-branch traces and replays them through
// branch predictors, keeping the misprediction bookkeeping that the
// predictors themselves do not.
//
// A trace has one branch per line: the branch address in hexadecimal, with
// or without a 0x prefix, and the outcome, 1 for taken or 0 for not taken.
//
//	0x40a9cc 1
//	0x40a9e4 0
package trace

import (
	"bufio"
	"compress/bzip2"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/bpsim/predictor"
)

// Record is one resolved conditional branch.
type Record struct {
	PC      uint32
	Outcome predictor.Outcome
}

// Source yields branch records until it returns io.EOF.
type Source interface {
	Next() (Record, error)
}

// Reader parses a text trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next branch, or io.EOF at the end of the trace.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}

		rec, err := ParseLine(text)
		if err != nil {
			return Record{}, errors.Wrapf(err, "line %d", r.line)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, errors.Wrap(err, "read trace")
	}
	return Record{}, io.EOF
}

// ParseLine parses a single "<pc> <outcome>" trace line.
func ParseLine(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Record{}, errors.Errorf(
			"expected \"<pc> <outcome>\", got %q", text)
	}

	pcText := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
	pc, err := strconv.ParseUint(pcText, 16, 32)
	if err != nil {
		return Record{}, errors.Wrapf(err, "bad branch address %q", fields[0])
	}

	var outcome predictor.Outcome
	switch fields[1] {
	case "0":
		outcome = predictor.NotTaken
	case "1":
		outcome = predictor.Taken
	default:
		return Record{}, errors.Errorf("bad outcome %q, want 0 or 1", fields[1])
	}

	return Record{PC: uint32(pc), Outcome: outcome}, nil
}

// File is a Reader over a trace file, decompressing .bz2 files on the fly.
type File struct {
	*Reader
	file *os.File
}

// Open opens a trace file. Files ending in .bz2 are read through bzip2.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open trace %q", path)
	}

	var r io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		r = bzip2.NewReader(f)
	}

	return &File{Reader: NewReader(r), file: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.file.Close()
}

// ReadAll loads every record of a trace into memory.
func ReadAll(src Source) ([]Record, error) {
	var records []Record
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// SliceSource replays records held in memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a Source over records.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record, or io.EOF when all have been returned.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
