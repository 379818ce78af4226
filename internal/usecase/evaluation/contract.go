package evaluation

import (
	"context"

	"github.com/kailas-cloud/croptalk/internal/domain/trace"
)

// Pipeline runs one conversational turn and returns its trace.
// Reset clears any conversation state between use cases.
type Pipeline interface {
	Run(ctx context.Context, question string) (*trace.Run, error)
	Reset()
}
