package index

// DocumentIndex defines the interface for search index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocRow, body string) error
	DeleteDocument(kind, id string) error
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
