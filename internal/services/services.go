// package services defines interfaces for the job's external collaborators
//
// Roster feed (published CSV), record store (hosted database), mail transport
package services

import (
	"context"

	"github.com/kelarin/rosync/internal/models"
)

// RosterFeed retrieves the raw roster CSV document.
type RosterFeed interface {
	// Fetch downloads the current roster export. A non-2xx response or an
	// empty body is an error; both abort the run that requested them.
	Fetch(ctx context.Context) ([]byte, error)
}

// RemoteRecord is the record store's view of one member row: the opaque page
// handle plus the three synced properties.
type RemoteRecord struct {
	PageID   string
	MemberID string
	Name     string
	Phone    string
}

// RecordPage is one page of a cursor-based scan over the store.
type RecordPage struct {
	Records    []RemoteRecord
	NextCursor string
	HasMore    bool
}

// RecordStore defines the operations the reconciliation engine needs from the
// hosted database: a paginated scan, a targeted lookup, and per-record writes.
type RecordStore interface {
	// QueryPage fetches one page of records. Pass "" for the first page;
	// follow NextCursor while HasMore is true.
	QueryPage(ctx context.Context, cursor string) (*RecordPage, error)

	// FindByMemberID looks up a single record by its identifier property.
	FindByMemberID(ctx context.Context, id string) (*RemoteRecord, error)

	// CreateRecord inserts a new record carrying the member's identifier,
	// name and phone under the configured collection.
	CreateRecord(ctx context.Context, m models.Member) (*RemoteRecord, error)

	// UpdateRecord replaces the name and phone properties of an existing
	// record. An empty phone clears the remote property explicitly.
	UpdateRecord(ctx context.Context, pageID string, m models.Member) error

	// Name returns the name of the store backend (e.g. "Notion")
	Name() string
}

// Mailer transmits the contact-card bundle. Failures are reported to the
// caller but are never retried.
type Mailer interface {
	SendContacts(ctx context.Context, subject, body string, attachment []byte, filename string) error
}
