package ports

import (
	"context"

	"gochurn/domain/customer"
)

// DatasetReader loads historical customer records for training
type DatasetReader interface {
	ReadRecords(ctx context.Context) ([]customer.HistoricalRecord, error)
	// Source describes where the records came from, for the artifact manifest
	Source() string
}
