package evalset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

// OutputPath derives the report path from the input path and pipeline mode:
// "cases/eval.csv" in mode "llm" becomes "cases/eval_output_llm.csv".
func OutputPath(evalPath, mode string) string {
	dir := filepath.Dir(evalPath)
	stem := strings.TrimSuffix(filepath.Base(evalPath), filepath.Ext(evalPath))
	return filepath.Join(dir, stem+"_output_"+mode+".csv")
}

// Save writes the scored table to path.
func Save(path string, t *Table, rows []evalcase.Row, summary evalcase.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := Write(f, t, rows, summary); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", path, err)
	}
	return nil
}

// Write emits the input table extended with the _actual columns, the retrieval
// step count, the _match columns, eval_score, and a trailing summary row that
// carries only the means of the match and score columns.
func Write(w io.Writer, t *Table, rows []evalcase.Row, summary evalcase.Summary) error {
	if len(rows) != len(t.Records) {
		return fmt.Errorf("report has %d rows for %d input records", len(rows), len(t.Records))
	}

	actualCols := actualColumns(t.Header)
	matchCols := evalcase.MatchColumns()

	header := make([]string, 0, len(t.Header)+len(actualCols)+len(matchCols)+2)
	header = append(header, t.Header...)
	header = append(header, actualCols...)
	header = append(header, evalcase.ColRetrievalCount)
	header = append(header, matchCols...)
	header = append(header, evalcase.ColScore)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		rec := make([]string, 0, len(header))
		rec = append(rec, t.Records[i]...)
		values := actualValues(&r.Actual)
		for _, col := range actualCols {
			rec = append(rec, values[col])
		}
		if r.Actual.Ran {
			rec = append(rec, strconv.Itoa(r.Actual.RetrievalSteps))
		} else {
			rec = append(rec, "")
		}
		for _, m := range r.Matches() {
			rec = append(rec, formatBool(m))
		}
		rec = append(rec, formatFloat(r.Score))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	last := make([]string, len(header))
	offset := len(t.Header) + len(actualCols) + 1
	for i, mean := range summary.Matches {
		last[offset+i] = formatFloat(mean)
	}
	last[len(last)-1] = formatFloat(summary.Score)
	if err := cw.Write(last); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// actualColumns mirrors every *_expected input column with an *_actual one.
func actualColumns(header []string) []string {
	var cols []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if base, ok := strings.CutSuffix(name, evalcase.SuffixExpected); ok {
			cols = append(cols, base+evalcase.SuffixActual)
		}
	}
	return cols
}

func actualValues(o *evalcase.Observation) map[string]string {
	out := make(map[string]string)
	if !o.Filled {
		return out
	}
	for _, f := range facet.All {
		out[evalcase.FacetColumn(f, evalcase.SuffixActual)] = o.Facets.Get(f)
	}
	for slot, d := range o.Documents {
		if d == nil {
			continue
		}
		out[evalcase.DocColumn(slot, evalcase.SuffixActual)] = d.Key
		if d.HasPage {
			out[evalcase.PageColumn(slot, evalcase.SuffixActual)] = strconv.Itoa(d.Page)
		}
	}
	return out
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatFloat writes integral values with a trailing ".0" and NaN as blank.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
