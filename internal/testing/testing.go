// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/services"
	"github.com/kelarin/rosync/internal/tasks"
)

// MockFeed is a test double for [services.RosterFeed]
type MockFeed struct {
	Data []byte
	Err  error
}

func (m *MockFeed) Fetch(ctx context.Context) ([]byte, error) {
	return m.Data, m.Err
}

// MockStore is a test double for [services.RecordStore] serving canned records
// in a single page.
type MockStore struct {
	Records []services.RemoteRecord
	Err     error

	Created []models.Member
	Updated []models.Member
}

func (m *MockStore) Name() string { return "mock" }

func (m *MockStore) QueryPage(ctx context.Context, cursor string) (*services.RecordPage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.RecordPage{Records: m.Records}, nil
}

func (m *MockStore) FindByMemberID(ctx context.Context, id string) (*services.RemoteRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, rec := range m.Records {
		if rec.MemberID == id {
			return &rec, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockStore) CreateRecord(ctx context.Context, member models.Member) (*services.RemoteRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Created = append(m.Created, member)
	return &services.RemoteRecord{PageID: "page-" + member.ID, MemberID: member.ID}, nil
}

func (m *MockStore) UpdateRecord(ctx context.Context, pageID string, member models.Member) error {
	if m.Err != nil {
		return m.Err
	}
	m.Updated = append(m.Updated, member)
	return nil
}

// MockMailer is a test double for [services.Mailer]
type MockMailer struct {
	Err        error
	Calls      int
	Subject    string
	Filename   string
	Attachment []byte
}

func (m *MockMailer) SendContacts(ctx context.Context, subject, body string, attachment []byte, filename string) error {
	m.Calls++
	m.Subject = subject
	m.Filename = filename
	m.Attachment = attachment
	return m.Err
}

// MockEngine is a test double for [tasks.Engine] returning a canned result.
type MockEngine struct {
	Result *tasks.SyncResult
	Err    error
	Runs   int
}

func (m *MockEngine) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error) {
	m.Runs++
	return m.Result, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
