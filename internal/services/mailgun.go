package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/kelarin/rosync/internal/shared"
)

// MailgunMailer implements [Mailer] over the Mailgun messages API: a
// multipart form POST with basic auth, a fixed sender and recipient, and the
// contact bundle as a file attachment.
type MailgunMailer struct {
	baseURL    string
	apiKey     string
	sender     string
	recipient  string
	httpClient *http.Client
}

// NewMailgunMailer creates a mailer for the given domain base URL
// (e.g. https://api.mailgun.net/v3/example.org).
func NewMailgunMailer(baseURL, apiKey, sender, recipient string, client *http.Client) *MailgunMailer {
	if client == nil {
		client = http.DefaultClient
	}
	return &MailgunMailer{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sender:     sender,
		recipient:  recipient,
		httpClient: client,
	}
}

// SendContacts posts the message with one attachment. Any failure is wrapped
// in [shared.ErrMailFailed]; callers log it and move on.
func (m *MailgunMailer) SendContacts(ctx context.Context, subject, body string, attachment []byte, filename string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"from":    m.sender,
		"to":      m.recipient,
		"subject": subject,
		"text":    body,
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("%w: building form: %v", shared.ErrMailFailed, err)
		}
	}

	fw, err := w.CreateFormFile("attachment", filename)
	if err != nil {
		return fmt.Errorf("%w: building attachment: %v", shared.ErrMailFailed, err)
	}
	if _, err := fw.Write(attachment); err != nil {
		return fmt.Errorf("%w: writing attachment: %v", shared.ErrMailFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: closing form: %v", shared.ErrMailFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/messages", &buf)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", shared.ErrMailFailed, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMailFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", shared.ErrMailFailed, resp.StatusCode, detail)
	}

	return nil
}
