package chat

import (
	"context"
	"errors"
	"time"

	chatmodel "github.com/kailas-cloud/croptalk/internal/domain/chat"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

// scriptedCompleter replays completions in order and records every request.
type scriptedCompleter struct {
	replies  []chatmodel.Completion
	errAt    int // 1-based call index that fails; 0 never fails
	requests []chatmodel.Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req chatmodel.Request) (chatmodel.Completion, error) {
	s.requests = append(s.requests, req)
	n := len(s.requests)
	if n == s.errAt {
		return chatmodel.Completion{}, errors.New("model unavailable")
	}
	if n > len(s.replies) {
		return chatmodel.Completion{Content: "done"}, nil
	}
	return s.replies[n-1], nil
}

type fakeRetriever struct {
	docs    []document.Document
	err     error
	queries []retrievaluc.Query
}

func (f *fakeRetriever) GetDocuments(_ context.Context, q retrievaluc.Query) ([]document.Document, error) {
	f.queries = append(f.queries, q)
	return f.docs, f.err
}

func testDocs() []document.Document {
	return []document.Document{
		{
			DisplayIndex: 1, Title: "Corn SP", PageID: "2", DocCategory: "SP", State: "19",
			S3Key: "sp/19/0041.pdf", URL: "https://b.test/sp/19/0041.pdf", Content: "Final planting date May 31.",
		},
		{
			DisplayIndex: 2, Title: "Handbook", PageID: "140", DocCategory: "CIH",
			S3Key: "cih/2024.pdf", URL: "https://b.test/cih/2024.pdf", Content: "Late planting period.",
		},
	}
}

func stepClock() func() time.Time {
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}
