package evalset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

// missingValues are cell spellings spreadsheet exports use for "no value".
var missingValues = map[string]struct{}{
	"": {}, "nan": {}, "-nan": {}, "na": {}, "n/a": {}, "<na>": {}, "#n/a": {}, "null": {}, "none": {},
}

// Table is the raw evaluation input: header plus string records, kept so the
// output can reproduce every input column unchanged.
type Table struct {
	Header  []string
	Records [][]string
	index   map[string]int
}

// Column returns the position of a header column.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Load reads an evaluation CSV file.
func Load(path string) (*Table, []evalcase.UseCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open eval set %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, cases, err := Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("read eval set %s: %w", path, err)
	}
	return t, cases, nil
}

// Read parses an evaluation table. Any malformed page notation fails the whole
// load with domain.ErrParse, before a single case runs.
func Read(r io.Reader) (*Table, []evalcase.UseCase, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty file", domain.ErrParse)
		}
		return nil, nil, fmt.Errorf("%w: header: %w", domain.ErrParse, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		t.index[strings.TrimSpace(name)] = i
	}
	if err := t.checkRequired(); err != nil {
		return nil, nil, err
	}

	var cases []evalcase.UseCase
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %w", domain.ErrParse, row, err)
		}
		rec = pad(rec, len(header))
		t.Records = append(t.Records, rec)

		uc, err := t.useCase(row, rec)
		if err != nil {
			return nil, nil, err
		}
		cases = append(cases, uc)
	}
	return t, cases, nil
}

func requiredColumns() []string {
	cols := []string{evalcase.ColQuery}
	for _, f := range facet.All {
		cols = append(cols, evalcase.FacetColumn(f, evalcase.SuffixExpected))
	}
	for slot := range evalcase.MaxDocuments {
		cols = append(cols,
			evalcase.DocColumn(slot, evalcase.SuffixExpected),
			evalcase.PageColumn(slot, evalcase.SuffixExpected))
	}
	return cols
}

func (t *Table) checkRequired() error {
	var missing []string
	for _, c := range requiredColumns() {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", domain.ErrParse, strings.Join(missing, ", "))
	}
	return nil
}

func (t *Table) useCase(row int, rec []string) (evalcase.UseCase, error) {
	get := func(col string) string { return cell(rec, t.index[col]) }

	uc := evalcase.UseCase{
		Row:   row,
		Query: get(evalcase.ColQuery),
		Facets: facet.Values{
			State:       get(evalcase.FacetColumn(facet.State, evalcase.SuffixExpected)),
			County:      get(evalcase.FacetColumn(facet.County, evalcase.SuffixExpected)),
			Commodity:   get(evalcase.FacetColumn(facet.Commodity, evalcase.SuffixExpected)),
			DocCategory: get(evalcase.FacetColumn(facet.DocCategory, evalcase.SuffixExpected)),
		},
	}

	for slot := range evalcase.MaxDocuments {
		rawPages := get(evalcase.PageColumn(slot, evalcase.SuffixExpected))
		pages, err := evalcase.ParsePages(rawPages)
		if err != nil {
			return evalcase.UseCase{}, fmt.Errorf("row %d, %s: %w",
				row, evalcase.PageColumn(slot, evalcase.SuffixExpected), err)
		}

		key := get(evalcase.DocColumn(slot, evalcase.SuffixExpected))
		if key == "" {
			continue
		}
		uc.Documents[slot] = &evalcase.ExpectedDocument{Key: key, Pages: pages}
	}
	return uc, nil
}

// cell returns a trimmed value, mapping missing-value spellings to "".
func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	if _, ok := missingValues[strings.ToLower(v)]; ok {
		return ""
	}
	return v
}

func pad(rec []string, n int) []string {
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}
