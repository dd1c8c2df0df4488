package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// RowError locates a rejected input row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// row reads typed cells by column name. The first parse failure sticks and
// later reads return zero values.
type row struct {
	cols   map[string]int
	record []string
	err    error
}

func (r *row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *row) fail(name, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("column %s: invalid value %q: %w", name, value, unwrapNum(err))
	}
}

func (r *row) int(name string) int {
	v := r.str(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, v, err)
	}
	return n
}

func (r *row) optInt(name string) *int {
	if r.str(name) == "" {
		return nil
	}
	n := r.int(name)
	return &n
}

func (r *row) float(name string) float64 {
	v := r.str(name)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(name, v, err)
	}
	return f
}

func (r *row) optFloat(name string) *float64 {
	if r.str(name) == "" {
		return nil
	}
	f := r.float(name)
	return &f
}

func (r *row) bool(name string) bool {
	v := strings.ToLower(r.str(name))
	switch v {
	case "", "0", "false", "f", "no", "n":
		return false
	case "1", "true", "t", "yes", "y":
		return true
	}
	r.fail(name, v, errors.New("not a boolean"))
	return false
}

// time accepts RFC3339 timestamps or bare dates (midnight UTC).
func (r *row) time(name string) time.Time {
	v := r.str(name)
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC()
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		r.fail(name, v, errors.New("want RFC3339 or YYYY-MM-DD"))
	}
	return t
}

func unwrapNum(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}

// readTable streams a headered CSV file, calling fn for every data row.
// Missing required columns fail before any row is read.
func readTable(ctx context.Context, path string, required []string, fn func(*row) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parseTable(ctx, path, f, required, fn)
}

func parseTable(ctx context.Context, name string, src io.Reader, required []string, fn func(*row) error) (int, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: read header: %w", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return 0, fmt.Errorf("%s: missing column %q", name, c)
		}
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		r := &row{cols: cols, record: record}
		ferr := fn(r)
		if r.err != nil {
			ferr = r.err
		}
		if ferr != nil {
			return n, &RowError{File: name, Line: line, Err: ferr}
		}
		n++
	}
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
