package evaluation

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/trace"
)

// Step is what the retrieval call of a turn actually received and produced.
type Step struct {
	Facets    facet.Values
	Documents []document.Document
}

// FindRetrievalStep returns the FindDocs step of run and how many there were.
// With several, the one that started last wins; ties go to the first
// encountered. No step yields nil.
func FindRetrievalStep(run *trace.Run) (*trace.Run, int) {
	steps := run.Find(trace.StepFindDocs)
	var latest *trace.Run
	for _, s := range steps {
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	return latest, len(steps)
}

// ExtractStep decodes the facets and documents of a retrieval step. Inputs are
// either a structured map or a serialized dict under "input". Outputs are
// structured documents under "documents", or tagged strings under "output"
// given as a list or as one serialized list.
func ExtractStep(step *trace.Run) (Step, error) {
	if step == nil {
		return Step{}, fmt.Errorf("%w: no retrieval step", domain.ErrTraceParse)
	}
	if step.Error != "" {
		return Step{}, fmt.Errorf("%w: retrieval step failed: %s", domain.ErrTraceParse, step.Error)
	}

	facets, err := extractFacets(step.Inputs)
	if err != nil {
		return Step{}, err
	}
	docs, err := extractDocuments(step.Outputs)
	if err != nil {
		return Step{}, err
	}
	return Step{Facets: facets, Documents: docs}, nil
}

// Observation converts the step into the actual columns of a use case.
func (s Step) Observation(retrievalSteps int) evalcase.Observation {
	obs := evalcase.Observation{
		Facets:         s.Facets,
		RetrievalSteps: retrievalSteps,
		Ran:            true,
		Filled:         true,
	}
	for i, d := range s.Documents {
		if i >= evalcase.MaxDocuments {
			break
		}
		page, ok := d.Page()
		obs.Documents[i] = &evalcase.ActualDocument{Key: d.S3Key, Page: page, HasPage: ok}
	}
	return obs
}

func extractFacets(inputs map[string]any) (facet.Values, error) {
	fields := inputs
	if raw, ok := inputs["input"]; ok {
		s, isString := raw.(string)
		if !isString {
			return facet.Values{}, fmt.Errorf("%w: input is %T, want serialized dict", domain.ErrTraceParse, raw)
		}
		parsed, err := parseSerializedDict(s)
		if err != nil {
			return facet.Values{}, err
		}
		fields = parsed
	}

	var v facet.Values
	for _, f := range facet.All {
		switch x := fields[string(f)].(type) {
		case nil:
		case string:
			v.Set(f, facet.Normalize(x))
		default:
			v.Set(f, fmt.Sprint(x))
		}
	}
	return v, nil
}

func extractDocuments(outputs map[string]any) ([]document.Document, error) {
	if raw, ok := outputs["documents"]; ok {
		return decodeDocuments(raw)
	}

	raw, ok := outputs["output"]
	if !ok {
		return nil, fmt.Errorf("%w: step has no output", domain.ErrTraceParse)
	}

	var tagged []string
	switch x := raw.(type) {
	case []string:
		tagged = x
	case []any:
		for i, e := range x {
			s, isString := e.(string)
			if !isString {
				return nil, fmt.Errorf("%w: output[%d] is %T", domain.ErrTraceParse, i, e)
			}
			tagged = append(tagged, s)
		}
	case string:
		list, err := parseSerializedList(x)
		if err != nil {
			return nil, err
		}
		tagged = list
	default:
		return nil, fmt.Errorf("%w: output is %T", domain.ErrTraceParse, raw)
	}

	docs := make([]document.Document, 0, len(tagged))
	for i, s := range tagged {
		d, err := document.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: output[%d]: %w", domain.ErrTraceParse, i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// decodeDocuments accepts typed documents or their generic JSON form, as found
// in a trace that went through a JSON round trip.
func decodeDocuments(raw any) ([]document.Document, error) {
	if docs, ok := raw.([]document.Document); ok {
		return docs, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: documents: %w", domain.ErrTraceParse, err)
	}
	var docs []document.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("%w: documents: %w", domain.ErrTraceParse, err)
	}
	return docs, nil
}

// parseSerializedDict reads a printed dict such as
// {'query': "What's late?", 'state': 'Iowa', 'include_common_docs': True}.
func parseSerializedDict(s string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err == nil && out != nil {
		return out, nil
	}
	v, err := parseLiteral(s)
	if err != nil {
		return nil, fmt.Errorf("%w: input %q is not a dict: %w", domain.ErrTraceParse, truncate(s), err)
	}
	out, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: input %q is not a dict", domain.ErrTraceParse, truncate(s))
	}
	return out, nil
}

// parseSerializedList reads a printed list of tagged strings, each element in
// either quote style.
func parseSerializedList(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out, nil
	}
	v, err := parseLiteral(s)
	if err != nil {
		return nil, fmt.Errorf("%w: output %q is not a list of documents: %w", domain.ErrTraceParse, truncate(s), err)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: output %q is not a list of documents", domain.ErrTraceParse, truncate(s))
	}
	out = make([]string, 0, len(items))
	for i, item := range items {
		str, isString := item.(string)
		if !isString {
			return nil, fmt.Errorf("%w: output[%d] is %T", domain.ErrTraceParse, i, item)
		}
		out = append(out, str)
	}
	return out, nil
}

func truncate(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
