package table

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
)

// Load reads the table stored at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NotFoundError("artifact not found").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.FileSystemError("failed to open artifact").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return t, nil
}

// Parse reads a table from r. Blank lines are skipped, leading whitespace in
// fields is ignored and an empty cell reads as NaN.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ferrors.ParseError("empty input: missing header row").Build()
	}
	if err != nil {
		return nil, csvError(err)
	}

	t := &Table{Columns: make([]string, len(header))}
	for i, name := range header {
		t.Columns[i] = strings.TrimSpace(name)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if stderrors.Is(err, csv.ErrFieldCount) {
			return nil, ferrors.ParseError(fmt.Sprintf("row has %d fields, header has %d", len(record), len(header))).
				WithContext("line", startLine(err)).
				Build()
		}
		if err != nil {
			return nil, csvError(err)
		}

		row := make([]float64, len(record))
		for i, field := range record {
			v, perr := parseCell(field)
			if perr != nil {
				line, col := cr.FieldPos(i)
				return nil, ferrors.ParseError(fmt.Sprintf("invalid number %q in column %q", strings.TrimSpace(field), t.Columns[i])).
					WithCause(perr).
					WithContext("line", line).
					WithContext("column", col).
					Build()
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseCell(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

func startLine(err error) int {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return pe.StartLine
	}
	return 0
}

func csvError(err error) error {
	b := ferrors.ParseError("malformed csv").WithCause(err)
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		b = b.WithContext("line", pe.Line).WithContext("column", pe.Column)
	}
	return b.Build()
}
