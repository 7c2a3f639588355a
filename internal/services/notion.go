// Notion implementation of [RecordStore]
//
// Notion API request/response shapes based on https://developers.notion.com/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultNotionBaseURL = "https://api.notion.com/v1"
	notionVersion        = "2022-06-28"
	defaultPageSize      = 100
)

// PropertyNames maps the synced member fields to property names in the target
// Notion database. The identifier lives in the title property.
type PropertyNames struct {
	ID    string
	Name  string
	Phone string
}

// DefaultPropertyNames returns the property names used when none are configured.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{ID: "Member ID", Name: "Name", Phone: "Phone"}
}

// NotionStore implements [RecordStore] against the Notion pages API.
// Requests authenticate with a bearer integration token via [oauth2].
type NotionStore struct {
	baseURL    string
	databaseID string
	props      PropertyNames
	pageSize   int
	httpClient *http.Client
}

// NewNotionStore creates a record store client for the given database.
func NewNotionStore(baseURL, token, databaseID string, props PropertyNames, pageSize int) *NotionStore {
	if baseURL == "" {
		baseURL = defaultNotionBaseURL
	}
	if props.ID == "" || props.Name == "" || props.Phone == "" {
		props = DefaultPropertyNames()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	return &NotionStore{
		baseURL:    baseURL,
		databaseID: databaseID,
		props:      props,
		pageSize:   pageSize,
		httpClient: oauth2.NewClient(context.Background(), src),
	}
}

// Name returns the store backend name.
func (s *NotionStore) Name() string {
	return "Notion"
}

type notionText struct {
	Content string `json:"content"`
}

type notionRichText struct {
	Text      notionText `json:"text"`
	PlainText string     `json:"plain_text,omitempty"`
}

type notionProperty struct {
	Type        string           `json:"type,omitempty"`
	Title       []notionRichText `json:"title,omitempty"`
	RichText    []notionRichText `json:"rich_text,omitempty"`
	PhoneNumber *string          `json:"phone_number,omitempty"`
}

type notionPage struct {
	ID         string                    `json:"id"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	NextCursor *string      `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

// doRequest performs an authenticated request against the Notion API and
// decodes the response into result when non-nil. HTTP error statuses are
// mapped onto the shared sentinel errors for retry classification.
func (s *NotionStore) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// mapStatus converts an HTTP error status into a classified sentinel error.
func mapStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", shared.ErrRateLimited, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrInvalidCredentials, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrRecordNotFound, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrStoreUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d", shared.ErrValidation, status)
	}
}

// QueryPage fetches one page of the database scan.
func (s *NotionStore) QueryPage(ctx context.Context, cursor string) (*RecordPage, error) {
	body := map[string]any{"page_size": s.pageSize}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var response notionQueryResponse
	endpoint := fmt.Sprintf("/databases/%s/query", s.databaseID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &response); err != nil {
		return nil, err
	}

	return s.toRecordPage(&response), nil
}

// FindByMemberID runs a filtered query matching the identifier property exactly.
func (s *NotionStore) FindByMemberID(ctx context.Context, id string) (*RemoteRecord, error) {
	body := map[string]any{
		"page_size": 1,
		"filter": map[string]any{
			"property": s.props.ID,
			"title":    map[string]any{"equals": id},
		},
	}

	var response notionQueryResponse
	endpoint := fmt.Sprintf("/databases/%s/query", s.databaseID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: member %s", shared.ErrRecordNotFound, id)
	}

	rec := s.toRecord(response.Results[0])
	return &rec, nil
}

// CreateRecord inserts a page carrying the full property set under the
// configured database.
func (s *NotionStore) CreateRecord(ctx context.Context, m models.Member) (*RemoteRecord, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": s.databaseID},
		"properties": s.writeProperties(m, true),
	}

	var page notionPage
	if err := s.doRequest(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, err
	}

	return &RemoteRecord{PageID: page.ID, MemberID: m.ID, Name: m.Name, Phone: m.Phone}, nil
}

// UpdateRecord replaces the name and phone properties of an existing page.
// An empty phone sends an explicit null so the remote value is cleared.
func (s *NotionStore) UpdateRecord(ctx context.Context, pageID string, m models.Member) error {
	body := map[string]any{
		"properties": s.writeProperties(m, false),
	}

	endpoint := fmt.Sprintf("/pages/%s", pageID)
	return s.doRequest(ctx, http.MethodPatch, endpoint, body, nil)
}

// writeProperties builds the property payload for a member. The identifier
// (title) property is only written on create; updates are keyed by page ID.
func (s *NotionStore) writeProperties(m models.Member, includeID bool) map[string]any {
	props := map[string]any{
		s.props.Name: map[string]any{
			"rich_text": []any{
				map[string]any{"text": map[string]any{"content": m.Name}},
			},
		},
	}

	if m.Phone != "" {
		props[s.props.Phone] = map[string]any{"phone_number": m.Phone}
	} else {
		props[s.props.Phone] = map[string]any{"phone_number": nil}
	}

	if includeID {
		props[s.props.ID] = map[string]any{
			"title": []any{
				map[string]any{"text": map[string]any{"content": m.ID}},
			},
		}
	}

	return props
}

func (s *NotionStore) toRecordPage(resp *notionQueryResponse) *RecordPage {
	page := &RecordPage{HasMore: resp.HasMore}
	if resp.NextCursor != nil {
		page.NextCursor = *resp.NextCursor
	}
	for _, p := range resp.Results {
		page.Records = append(page.Records, s.toRecord(p))
	}
	return page
}

func (s *NotionStore) toRecord(p notionPage) RemoteRecord {
	rec := RemoteRecord{PageID: p.ID}

	if prop, ok := p.Properties[s.props.ID]; ok {
		rec.MemberID = plainText(prop.Title)
	}
	if prop, ok := p.Properties[s.props.Name]; ok {
		rec.Name = plainText(prop.RichText)
	}
	if prop, ok := p.Properties[s.props.Phone]; ok && prop.PhoneNumber != nil {
		rec.Phone = *prop.PhoneNumber
	}

	return rec
}

// plainText flattens a rich text array into its concatenated content.
func plainText(rts []notionRichText) string {
	var out string
	for _, rt := range rts {
		if rt.PlainText != "" {
			out += rt.PlainText
		} else {
			out += rt.Text.Content
		}
	}
	return out
}
