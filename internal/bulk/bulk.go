// Package bulk estimates viability for every row of a tab-separated table.
package bulk

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/thrash-lab/viability-test/internal/domain"
	"github.com/thrash-lab/viability-test/internal/util"
	"github.com/thrash-lab/viability-test/internal/viability"
)

// Input columns every table must have.
const (
	ColWells       = "wells"
	ColInoculum    = "inoculum"
	ColRelAbund    = "rel_abund"
	ColNumObserved = "num_observed"
)

// ResultColumns are appended to the input columns on output.
var ResultColumns = []string{
	"pure_well_med", "pure_well_95pc_low", "pure_well_95pc_high",
	"viability_95pc_low", "viability_95pc_high",
	"within_range", "deviance",
}

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyInput    = errors.New("empty input")
)

// Output formats accepted by Write.
const (
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// Table is a parsed input table.
type Table struct {
	Columns []string // header, in input order
	Rows    []Row
}

// Row is one input row.
type Row struct {
	Line   int      // line number in the input
	Fields []string // raw values, aligned with Table.Columns
	Query  domain.Query
}

// Result is the estimate for one row.
type Result struct {
	Row
	RunID       string
	Pure        [3]float64 // median, low and high pure wells at full viability
	Viability   domain.Range
	WithinRange bool
	Deviance    *float64 // observed minus median, only when not within range
}

// Estimator runs one guarded viability estimate.
type Estimator interface {
	Estimate(ctx context.Context, q domain.Query) (domain.Estimate, error)
}

// Read parses a tab-separated table with a header line. Columns may come in
// any order and extra columns are kept. Every row is validated.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range []string{ColWells, ColInoculum, ColRelAbund, ColNumObserved} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	t := &Table{Columns: header}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		q, err := parseQuery(fields, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, Row{Line: line, Fields: fields, Query: q})
	}
	return t, nil
}

func parseQuery(fields []string, index map[string]int) (domain.Query, error) {
	wells, err := util.ToInt64(fields[index[ColWells]])
	if err != nil {
		return domain.Query{}, fmt.Errorf("%s: %w", ColWells, err)
	}
	inoculum, err := util.ToFloat64(fields[index[ColInoculum]])
	if err != nil {
		return domain.Query{}, fmt.Errorf("%s: %w", ColInoculum, err)
	}
	abund, err := util.ToFloat64(fields[index[ColRelAbund]])
	if err != nil {
		return domain.Query{}, fmt.Errorf("%s: %w", ColRelAbund, err)
	}
	observed, err := util.ToInt64(fields[index[ColNumObserved]])
	if err != nil {
		return domain.Query{}, fmt.Errorf("%s: %w", ColNumObserved, err)
	}
	return domain.Query{
		Inoculum:     inoculum,
		RelAbundance: abund,
		Wells:        int(wells),
		Observed:     int(observed),
	}, nil
}

// Process estimates every row in order. onRow, when set, is called with each
// result as it completes.
func Process(ctx context.Context, t *Table, est Estimator, onRow func(Result)) ([]Result, error) {
	results := make([]Result, 0, len(t.Rows))
	for _, row := range t.Rows {
		e, err := est.Estimate(ctx, row.Query)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		res := NewResult(row, e)
		results = append(results, res)
		if onRow != nil {
			onRow(res)
		}
	}
	return results, nil
}

// NewResult compares a row's observation with the full-viability pure-well
// interval of its estimate.
func NewResult(row Row, e domain.Estimate) Result {
	pure := e.Baseline.Pure
	observed := float64(row.Query.Observed)
	res := Result{
		Row:         row,
		RunID:       e.RunID,
		Pure:        [3]float64{pure.Median, pure.Low, pure.High},
		Viability:   e.Range,
		WithinRange: observed >= pure.Low && observed <= pure.High,
	}
	if !res.WithinRange {
		res.Deviance = util.FloatPtr(observed - pure.Median)
	}
	return res
}

// Write writes the input columns followed by ResultColumns as tsv or json.
func Write(w io.Writer, t *Table, results []Result, format string) error {
	switch format {
	case FormatTSV, "":
		return writeTSV(w, t, results)
	case FormatJSON:
		return writeJSON(w, t, results)
	default:
		return fmt.Errorf("unsupported format: %s (use tsv or json)", format)
	}
}

func writeTSV(w io.Writer, t *Table, results []Result) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	header := append(append([]string{}, t.Columns...), ResultColumns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write TSV header: %w", err)
	}

	for _, r := range results {
		row := append([]string{}, r.Fields...)
		row = append(row,
			util.FormatFloat(r.Pure[0]), util.FormatFloat(r.Pure[1]), util.FormatFloat(r.Pure[2]),
			formatBound(r.Viability.Min), formatBound(r.Viability.Max),
			strconv.FormatBool(r.WithinRange), util.FormatFloatPtr(r.Deviance),
		)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write TSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// formatBound writes an unresolved bound as an empty cell.
func formatBound(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return util.FormatFloat(f)
}

// ExportRow is the JSON form of a Result. Non-finite viability bounds are
// null; Outcome tells an unresolved range from an implausible one.
type ExportRow struct {
	Line             int               `json:"line"`
	Input            map[string]string `json:"input"`
	RunID            string            `json:"run_id"`
	PureWellMed      float64           `json:"pure_well_med"`
	PureWell95pcLow  float64           `json:"pure_well_95pc_low"`
	PureWell95pcHigh float64           `json:"pure_well_95pc_high"`
	Viability95pcLow *float64          `json:"viability_95pc_low"`
	Viability95pcHi  *float64          `json:"viability_95pc_high"`
	Outcome          string            `json:"outcome"`
	WithinRange      bool              `json:"within_range"`
	Deviance         *float64          `json:"deviance,omitempty"`
}

func writeJSON(w io.Writer, t *Table, results []Result) error {
	rows := make([]ExportRow, 0, len(results))
	for _, r := range results {
		input := make(map[string]string, len(t.Columns))
		for i, name := range t.Columns {
			if i < len(r.Fields) {
				input[name] = r.Fields[i]
			}
		}
		rows = append(rows, ExportRow{
			Line:             r.Line,
			Input:            input,
			RunID:            r.RunID,
			PureWellMed:      r.Pure[0],
			PureWell95pcLow:  r.Pure[1],
			PureWell95pcHigh: r.Pure[2],
			Viability95pcLow: finite(r.Viability.Min),
			Viability95pcHi:  finite(r.Viability.Max),
			Outcome:          viability.Outcome(r.Viability),
			WithinRange:      r.WithinRange,
			Deviance:         r.Deviance,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return util.FloatPtr(f)
}
