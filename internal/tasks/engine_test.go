package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/roster"
	"github.com/kelarin/rosync/internal/services"
	"github.com/kelarin/rosync/internal/shared"
)

type mockFeed struct {
	data  []byte
	err   error
	calls int
}

func (f *mockFeed) Fetch(ctx context.Context) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// mockStore keeps records in memory keyed by member id and paginates them in
// sorted order, pageSize records per page (all at once when zero).
type mockStore struct {
	mu       sync.Mutex
	records  map[string]services.RemoteRecord
	pageSize int

	queryErr  error
	createErr error
	updateErr error

	queryCalls  int
	createCalls int
	updateCalls int
	updatedIDs  []string
}

func newMockStore(existing ...services.RemoteRecord) *mockStore {
	s := &mockStore{records: map[string]services.RemoteRecord{}}
	for _, rec := range existing {
		s.records[rec.MemberID] = rec
	}
	return s
}

func (s *mockStore) Name() string { return "mock" }

func (s *mockStore) QueryPage(ctx context.Context, cursor string) (*services.RecordPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := len(ids)
	if s.pageSize > 0 && start+s.pageSize < end {
		end = start + s.pageSize
	}

	page := &services.RecordPage{}
	for _, id := range ids[start:end] {
		page.Records = append(page.Records, s.records[id])
	}
	if end < len(ids) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (s *mockStore) FindByMemberID(ctx context.Context, id string) (*services.RemoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok {
		return &rec, nil
	}
	return nil, fmt.Errorf("%w: member %s", shared.ErrRecordNotFound, id)
}

func (s *mockStore) CreateRecord(ctx context.Context, m models.Member) (*services.RemoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}

	rec := services.RemoteRecord{PageID: "page-" + m.ID, MemberID: m.ID, Name: m.Name, Phone: m.Phone}
	s.records[m.ID] = rec
	return &rec, nil
}

func (s *mockStore) UpdateRecord(ctx context.Context, pageID string, m models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}

	for id, rec := range s.records {
		if rec.PageID == pageID {
			s.records[id] = services.RemoteRecord{PageID: pageID, MemberID: m.ID, Name: m.Name, Phone: m.Phone}
			s.updatedIDs = append(s.updatedIDs, m.ID)
			return nil
		}
	}
	return fmt.Errorf("%w: page %s", shared.ErrRecordNotFound, pageID)
}

type mockMailer struct {
	err        error
	calls      int
	subject    string
	filename   string
	attachment []byte
}

func (m *mockMailer) SendContacts(ctx context.Context, subject, body string, attachment []byte, filename string) error {
	m.calls++
	m.subject = subject
	m.filename = filename
	m.attachment = attachment
	return m.err
}

func testBundle(members []models.Member) []byte {
	var b strings.Builder
	for _, m := range members {
		b.WriteString(m.ID + ":" + m.Phone + "\n")
	}
	return []byte(b.String())
}

func testOptions() EngineOptions {
	return EngineOptions{
		DetectColumns: true,
		HeaderRow:     true,
		RateLimit:     1000,
		Retry:         RetryPolicy{Attempts: 5, Backoff: time.Millisecond},
		Bundle:        testBundle,
	}
}

const rosterHeader = "Member ID,Title,First Name,Last Name,Phone\n"

func TestSyncEngineCreateVsUpdate(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader +
		"M1,Mr,Asep,Sunandar,081234567890\n" +
		"M2,Ms,Siti,Rahma,081298765432\n")}
	store := newMockStore(services.RemoteRecord{PageID: "page-M1", MemberID: "M1", Name: "Asep"})
	mailer := &mockMailer{}

	engine := NewSyncEngine(feed, store, mailer, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Created != 1 || result.Updated != 1 || result.Failed != 0 {
		t.Errorf("created/updated/failed = %d/%d/%d, want 1/1/0", result.Created, result.Updated, result.Failed)
	}
	if len(store.updatedIDs) != 1 || store.updatedIDs[0] != "M1" {
		t.Errorf("updated ids = %v, want [M1]", store.updatedIDs)
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", store.createCalls)
	}

	upd, _ := store.FindByMemberID(context.Background(), "M1")
	if upd.Phone != "+6281234567890" {
		t.Errorf("updated phone = %q", upd.Phone)
	}
}

func TestSyncEngineIdempotent(t *testing.T) {
	csv := rosterHeader +
		"M1,Mr,Asep,Sunandar,081234567890\n" +
		"M2,Ms,Siti,Rahma,081298765432\n"
	feed := &mockFeed{data: []byte(csv)}
	store := newMockStore()

	engine := NewSyncEngine(feed, store, &mockMailer{}, nil, testOptions())

	first, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Created != 2 {
		t.Fatalf("first run created = %d, want 2", first.Created)
	}

	second, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Created != 0 || second.Updated != 2 {
		t.Errorf("second run created/updated = %d/%d, want 0/2", second.Created, second.Updated)
	}
}

func TestSyncEngineEndToEnd(t *testing.T) {
	// One row missing its identifier, one with a normalizable phone, one
	// whose phone cannot be parsed.
	feed := &mockFeed{data: []byte(rosterHeader +
		",Mr,Budi,Santoso,081211112222\n" +
		"M1,Mr,Asep,Sunandar,081234567890\n" +
		"M2,Ms,Siti,Rahma,abc\n")}
	store := newMockStore()
	mailer := &mockMailer{}

	progress := make(chan ProgressUpdate, 64)
	engine := NewSyncEngine(feed, store, mailer, nil, testOptions())

	result, err := engine.Run(context.Background(), progress)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RowsTotal != 3 || result.Skipped != 1 {
		t.Errorf("rows/skipped = %d/%d, want 3/1", result.RowsTotal, result.Skipped)
	}
	if result.Created != 2 {
		t.Errorf("created = %d, want 2", result.Created)
	}
	if result.Exported != 1 {
		t.Errorf("exported = %d, want 1", result.Exported)
	}
	if !result.MailSent || mailer.calls != 1 {
		t.Fatalf("mail sent = %v, calls = %d", result.MailSent, mailer.calls)
	}
	if got := string(mailer.attachment); got != "M1:+6281234567890\n" {
		t.Errorf("attachment = %q", got)
	}
	if !strings.Contains(mailer.subject, "1") {
		t.Errorf("subject %q should report the contact count", mailer.subject)
	}

	m2, _ := store.FindByMemberID(context.Background(), "M2")
	if m2.Phone != "" {
		t.Errorf("M2 phone = %q, want empty", m2.Phone)
	}
}

func TestSyncEnginePaginatesRemoteScan(t *testing.T) {
	store := newMockStore(
		services.RemoteRecord{PageID: "p1", MemberID: "M1"},
		services.RemoteRecord{PageID: "p2", MemberID: "M2"},
		services.RemoteRecord{PageID: "p3", MemberID: "M3"},
	)
	store.pageSize = 1
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,081234567890\n")}

	engine := NewSyncEngine(feed, store, nil, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.queryCalls != 3 {
		t.Errorf("queryCalls = %d, want 3 pages", store.queryCalls)
	}
	if result.Updated != 1 {
		t.Errorf("updated = %d, want 1", result.Updated)
	}
}

func TestSyncEngineFetchFailureFatal(t *testing.T) {
	feed := &mockFeed{err: fmt.Errorf("%w: status 503", shared.ErrFeedUnavailable)}
	engine := NewSyncEngine(feed, newMockStore(), nil, nil, testOptions())

	_, err := engine.Run(context.Background(), nil)
	if !errors.Is(err, shared.ErrFeedUnavailable) {
		t.Errorf("error = %v, want ErrFeedUnavailable", err)
	}
}

func TestSyncEngineScanExhaustionFatal(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,081234567890\n")}
	store := newMockStore()
	store.queryErr = fmt.Errorf("%w: status 502", shared.ErrStoreUnavailable)

	engine := NewSyncEngine(feed, store, nil, nil, testOptions())

	_, err := engine.Run(context.Background(), nil)
	if !errors.Is(err, shared.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
	if store.queryCalls != 5 {
		t.Errorf("queryCalls = %d, want 5 retry attempts", store.queryCalls)
	}
}

func TestSyncEngineWriteFailureContinues(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader +
		"M1,Mr,Asep,Sunandar,081234567890\n" +
		"M2,Ms,Siti,Rahma,081298765432\n")}
	store := newMockStore(services.RemoteRecord{PageID: "page-M1", MemberID: "M1"})
	store.updateErr = fmt.Errorf("%w: status 500", shared.ErrStoreUnavailable)

	engine := NewSyncEngine(feed, store, &mockMailer{}, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Failed != 1 || result.Created != 1 {
		t.Errorf("failed/created = %d/%d, want 1/1", result.Failed, result.Created)
	}
	if store.updateCalls != 5 {
		t.Errorf("updateCalls = %d, want 5 retry attempts", store.updateCalls)
	}
	if len(result.Failures) != 1 || result.Failures[0].MemberID != "M1" {
		t.Errorf("failures = %+v", result.Failures)
	}
}

func TestSyncEngineValidationErrorNotRetried(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,081234567890\n")}
	store := newMockStore()
	store.createErr = fmt.Errorf("%w: status 400", shared.ErrValidation)

	engine := NewSyncEngine(feed, store, nil, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (no retry on validation errors)", store.createCalls)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
}

func TestSyncEngineMailFailureNonFatal(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,081234567890\n")}
	mailer := &mockMailer{err: fmt.Errorf("%w: status 401", shared.ErrMailFailed)}

	engine := NewSyncEngine(feed, newMockStore(), mailer, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v, mail failures must not abort the run", err)
	}
	if result.MailSent {
		t.Error("MailSent = true after transport failure")
	}
	if mailer.calls != 1 {
		t.Errorf("mailer calls = %d, want 1 (no retry)", mailer.calls)
	}
}

func TestSyncEngineSkipsMailWithoutContacts(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,abc\n")}
	mailer := &mockMailer{}

	engine := NewSyncEngine(feed, newMockStore(), mailer, nil, testOptions())

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Exported != 0 || mailer.calls != 0 {
		t.Errorf("exported = %d, mailer calls = %d, want 0/0", result.Exported, mailer.calls)
	}
}

func TestSyncEngineDryRun(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader +
		"M1,Mr,Asep,Sunandar,081234567890\n" +
		"M2,Ms,Siti,Rahma,081298765432\n")}
	store := newMockStore(services.RemoteRecord{PageID: "page-M1", MemberID: "M1"})
	mailer := &mockMailer{}

	opts := testOptions()
	opts.DryRun = true
	engine := NewSyncEngine(feed, store, mailer, nil, opts)

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Created != 1 || result.Updated != 1 {
		t.Errorf("dry-run created/updated = %d/%d, want 1/1", result.Created, result.Updated)
	}
	if store.createCalls != 0 || store.updateCalls != 0 {
		t.Errorf("dry run issued writes: create=%d update=%d", store.createCalls, store.updateCalls)
	}
	if mailer.calls != 0 {
		t.Errorf("dry run sent mail")
	}
	if result.Exported != 2 {
		t.Errorf("exported = %d, want 2", result.Exported)
	}
}

func TestSyncEngineFixedColumnsScansPhones(t *testing.T) {
	// Positional mode: phone column holds junk, the real number sits one
	// column to the right.
	feed := &mockFeed{data: []byte("M1,Mr,Asep,Sunandar,n/a,081234567890\n")}
	store := newMockStore()

	opts := testOptions()
	opts.DetectColumns = false
	opts.HeaderRow = false
	opts.Columns = roster.ColumnMapping{ID: 0, Title: 1, First: 2, Last: 3, Phone: 4}
	engine := NewSyncEngine(feed, store, nil, nil, opts)

	result, err := engine.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Exported != 1 {
		t.Errorf("exported = %d, want 1", result.Exported)
	}

	rec, _ := store.FindByMemberID(context.Background(), "M1")
	if rec.Phone != "+6281234567890" {
		t.Errorf("phone = %q", rec.Phone)
	}
}

func TestSyncEngineUnresolvableHeaderFatal(t *testing.T) {
	feed := &mockFeed{data: []byte("Alpha,Beta,Gamma,Delta\n1,2,3,4\n")}
	engine := NewSyncEngine(feed, newMockStore(), nil, nil, testOptions())

	_, err := engine.Run(context.Background(), nil)
	if !errors.Is(err, shared.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestSyncEngineProgressNeverBlocks(t *testing.T) {
	feed := &mockFeed{data: []byte(rosterHeader + "M1,Mr,Asep,Sunandar,081234567890\n")}
	engine := NewSyncEngine(feed, newMockStore(), nil, nil, testOptions())

	// Unbuffered channel with no reader: every send must fall through.
	progress := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Run(context.Background(), progress); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run blocked on progress channel")
	}
}
