package ports

import "time"

// IngestObserver receives progress of a bulk ingest. Implementations must be
// safe for concurrent use since separate requests may ingest at once.
type IngestObserver interface {
	BatchInserted(size int, elapsed time.Duration)
	IngestFinished(inserted int, err error)
}
