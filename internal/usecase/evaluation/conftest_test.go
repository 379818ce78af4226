package evaluation

import (
	"time"

	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/domain/trace"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func doc(idx int, key, page, content string) document.Document {
	return document.Document{
		DisplayIndex: idx, Title: "T" + key, PageID: page, DocCategory: "SP", State: "19",
		S3Key: key, URL: "https://b.test/" + key, Content: content,
	}
}

func renderAll(docs ...document.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Render())
	}
	return out
}

// turn builds a root run with the given FindDocs steps.
func turn(steps ...*trace.Run) *trace.Run {
	return &trace.Run{Name: "Turn", StartTime: t0, Children: steps}
}

func findDocs(start time.Duration, inputs, outputs map[string]any) *trace.Run {
	return &trace.Run{Name: trace.StepFindDocs, StartTime: t0.Add(start), Inputs: inputs, Outputs: outputs}
}

func expected(key string, pages ...int) *evalcase.ExpectedDocument {
	set := make(evalcase.PageSet)
	for _, p := range pages {
		set[p] = struct{}{}
	}
	return &evalcase.ExpectedDocument{Key: key, Pages: set}
}

func actual(key string, page int) *evalcase.ActualDocument {
	return &evalcase.ActualDocument{Key: key, Page: page, HasPage: true}
}
