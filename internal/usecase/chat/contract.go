package chat

import (
	"context"

	"github.com/kailas-cloud/croptalk/internal/domain/document"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

// Retriever finds documents for one tool call or extraction result.
type Retriever interface {
	GetDocuments(ctx context.Context, q retrievaluc.Query) ([]document.Document, error)
}
