package repository

import (
	"context"

	"github.com/joseph-ayodele/product-extractor/internal/entity"
)

// Unavailable is the sink used when the database could not be opened. Every
// Persist fails with the open error so documents are still processed and
// counted as failed storage attempts.
type Unavailable struct {
	Err error
}

func (u Unavailable) Persist(_ context.Context, _ entity.ProcessedData) entity.StorageOutcome {
	msg := "database unavailable"
	if u.Err != nil {
		msg += ": " + u.Err.Error()
	}
	return entity.StorageFailure(msg)
}
