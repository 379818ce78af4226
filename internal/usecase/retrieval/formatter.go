package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
	"github.com/kailas-cloud/croptalk/internal/metrics"
)

var errNoFetcher = errors.New("no full-text provider configured")

// Formatter renders surviving candidates into documents.
type Formatter struct {
	fetcher          FullTextFetcher
	urlBase          string
	fullTextCategory string
}

// NewFormatter creates a formatter. Candidates of fullTextCategory get their
// complete source text from fetcher instead of the indexed excerpt.
func NewFormatter(fetcher FullTextFetcher, urlBase, fullTextCategory string) *Formatter {
	return &Formatter{
		fetcher:          fetcher,
		urlBase:          strings.TrimRight(urlBase, "/"),
		fullTextCategory: fullTextCategory,
	}
}

// URL returns the public location of a source document.
func (f *Formatter) URL(key string) string {
	return f.urlBase + "/" + strings.TrimLeft(key, "/")
}

// Format builds the document for one candidate. Fetch failures are returned as
// *domain.FetchError and never replaced with empty content.
func (f *Formatter) Format(ctx context.Context, c candidate.Candidate, displayIndex int) (document.Document, error) {
	content := c.Content()
	if c.DocCategory() == f.fullTextCategory {
		text, err := f.fetch(ctx, c.SourceKey())
		if err != nil {
			metrics.FullTextFetchTotal.WithLabelValues("error").Inc()
			return document.Document{}, err
		}
		metrics.FullTextFetchTotal.WithLabelValues("ok").Inc()
		content = CleanText(text)
	}

	return document.Document{
		DisplayIndex: displayIndex,
		Title:        c.Title(),
		PageID:       c.Page(),
		DocCategory:  c.DocCategory(),
		Commodity:    c.Commodity(),
		State:        c.State(),
		County:       c.County(),
		S3Key:        c.SourceKey(),
		URL:          f.URL(c.SourceKey()),
		Content:      content,
	}, nil
}

func (f *Formatter) fetch(ctx context.Context, key string) (string, error) {
	if f.fetcher == nil {
		return "", domain.NewFetchError(key, errNoFetcher)
	}
	text, err := f.fetcher.FetchText(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrFetch) {
			return "", err
		}
		return "", domain.NewFetchError(key, err)
	}
	return text, nil
}

// CleanText collapses every run of whitespace, newlines included, into one space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
