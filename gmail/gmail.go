// Package gmail sends and reads mail through the Gmail v1 REST API on
// behalf of the authorized account.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// EmailSummary is one listed message with its common headers and, when
// requested, the decoded plain-text body.
type EmailSummary struct {
	ID      string
	Subject string
	Sender  string
	Date    string
	Snippet string
	Body    string
}

// SendReceipt identifies a sent message.
type SendReceipt struct {
	MessageID string
	ThreadID  string
}

type Service struct {
	httpClient *http.Client
	baseURL    string
}

// New builds a Gmail service using the given OAuth2 token source.
func New(ts oauth2.TokenSource) *Service {
	return &Service{
		httpClient: oauth2.NewClient(context.Background(), ts),
		baseURL:    defaultBaseURL,
	}
}

// Send delivers a plain-text message from the authorized account.
func (s *Service) Send(ctx context.Context, to, subject, body string) (*SendReceipt, error) {
	raw := buildMessage(to, subject, body)
	payload := map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString([]byte(raw)),
	}

	var resp struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	}
	if err := s.do(ctx, http.MethodPost, s.baseURL+"/messages/send", payload, &resp); err != nil {
		return nil, err
	}
	return &SendReceipt{MessageID: resp.ID, ThreadID: resp.ThreadID}, nil
}

// List returns up to maxResults messages matching the Gmail search query
// (for example "is:unread" or "is:inbox newer_than:1d"). When includeBody
// is true each message's plain-text body is fetched and decoded.
func (s *Service) List(ctx context.Context, query string, maxResults int, includeBody bool) ([]EmailSummary, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	q.Set("maxResults", strconv.Itoa(maxResults))

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := s.do(ctx, http.MethodGet, s.baseURL+"/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}

	out := make([]EmailSummary, 0, len(list.Messages))
	for _, m := range list.Messages {
		summary, err := s.getMessage(ctx, m.ID, includeBody)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

// Delete moves the message to trash.
func (s *Service) Delete(ctx context.Context, messageID string) error {
	u := s.baseURL + "/messages/" + url.PathEscape(messageID) + "/trash"
	return s.do(ctx, http.MethodPost, u, nil, nil)
}

type apiMessagePart struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []apiMessagePart `json:"parts"`
}

func (s *Service) getMessage(ctx context.Context, id string, includeBody bool) (*EmailSummary, error) {
	format := "metadata"
	if includeBody {
		format = "full"
	}
	q := url.Values{}
	q.Set("format", format)
	if !includeBody {
		for _, h := range []string{"Subject", "From", "Date"} {
			q.Add("metadataHeaders", h)
		}
	}

	var msg struct {
		ID      string         `json:"id"`
		Snippet string         `json:"snippet"`
		Payload apiMessagePart `json:"payload"`
	}
	u := s.baseURL + "/messages/" + url.PathEscape(id) + "?" + q.Encode()
	if err := s.do(ctx, http.MethodGet, u, nil, &msg); err != nil {
		return nil, err
	}

	summary := &EmailSummary{ID: msg.ID, Snippet: msg.Snippet}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			summary.Subject = h.Value
		case "From":
			summary.Sender = h.Value
		case "Date":
			summary.Date = h.Value
		}
	}
	if summary.Subject == "" {
		summary.Subject = "(no subject)"
	}
	if includeBody {
		summary.Body = extractPlainText(&msg.Payload)
	}
	return summary, nil
}

// extractPlainText walks the MIME tree for the first text/plain part.
func extractPlainText(part *apiMessagePart) string {
	if part.MimeType == "text/plain" && part.Body.Data != "" {
		data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "="))
		if err != nil {
			return ""
		}
		return string(data)
	}
	for i := range part.Parts {
		if text := extractPlainText(&part.Parts[i]); text != "" {
			return text
		}
	}
	return ""
}

func buildMessage(to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

func (s *Service) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gmail API %s: %s", resp.Status, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
