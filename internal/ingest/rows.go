package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMissingField is returned when none of a concept's probe fields is
// present in a row.
var ErrMissingField = errors.New("missing field")

// row is one record of a table. Lookups return a gjson.Result so JSON and
// CSV sources share the same conversions.
type row interface {
	get(field string) gjson.Result
}

type jsonRow struct{ gjson.Result }

func (r jsonRow) get(field string) gjson.Result {
	return r.Result.Get(gjson.Escape(field))
}

type csvRow struct {
	cols  map[string]int
	cells []string
}

func (r csvRow) get(field string) gjson.Result {
	i, ok := r.cols[field]
	if !ok || i >= len(r.cells) || r.cells[i] == "" {
		return gjson.Result{}
	}
	s := r.cells[i]
	return gjson.Result{Type: gjson.String, Str: s, Raw: fmt.Sprintf("%q", s)}
}

// probe returns the first present, non-null field of fields.
func probe(r row, fields []string) (gjson.Result, bool) {
	for _, f := range fields {
		v := r.get(f)
		if v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func need(r row, concept string, fields []string) (gjson.Result, error) {
	v, ok := probe(r, fields)
	if !ok {
		return v, fmt.Errorf("%w: %s (tried %s)", ErrMissingField, concept, strings.Join(fields, ", "))
	}
	return v, nil
}

func intOf(v gjson.Result) int { return int(math.Round(v.Float())) }

func textOf(v gjson.Result) string { return strings.TrimSpace(v.String()) }

// listOf reads a list column: a JSON array, a JSON-ish string such as
// "['ak47', 'knife']", or a "|" separated string.
func listOf(v gjson.Result) []string {
	if v.IsArray() {
		var out []string
		for _, e := range v.Array() {
			if s := textOf(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	s := strings.TrimSpace(v.String())
	if s == "" || s == "[]" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		return listOf(gjson.Parse(strings.ReplaceAll(s, "'", `"`)))
	}
	sep := "|"
	if !strings.Contains(s, sep) {
		sep = ","
	}
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readRows decodes a table by its (uncompressed) extension: a JSON array,
// newline-delimited JSON or CSV with a header row.
func readRows(r io.Reader, ext string) ([]row, error) {
	switch ext {
	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("invalid JSON")
		}
		doc := gjson.ParseBytes(data)
		if !doc.IsArray() {
			return nil, fmt.Errorf("expected a JSON array of records")
		}
		var rows []row
		doc.ForEach(func(_, v gjson.Result) bool {
			rows = append(rows, jsonRow{v})
			return true
		})
		return rows, nil

	case ".ndjson", ".jsonl":
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		var rows []row
		line := 0
		for sc.Scan() {
			line++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			if !gjson.ValidBytes(b) {
				return nil, fmt.Errorf("line %d: invalid JSON", line)
			}
			// The scanner reuses its buffer.
			rows = append(rows, jsonRow{gjson.Parse(string(b))})
		}
		return rows, sc.Err()

	case ".csv":
		cr := csv.NewReader(r)
		header, err := cr.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		cols := make(map[string]int, len(header))
		for i, h := range header {
			cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
		}
		var rows []row
		for {
			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			rows = append(rows, csvRow{cols: cols, cells: rec})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unsupported table format %q", ext)
}
