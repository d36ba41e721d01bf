package gmail

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	raw := buildMessage("alice@example.com", "Hello", "How are you?")

	header, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found {
		t.Fatalf("no header/body separator in %q", raw)
	}
	if body != "How are you?" {
		t.Fatalf("body = %q", body)
	}
	for _, want := range []string{
		"To: alice@example.com",
		"Subject: Hello",
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	} {
		if !strings.Contains(header, want) {
			t.Fatalf("header missing %q:\n%s", want, header)
		}
	}
}

func TestExtractPlainTextNested(t *testing.T) {
	part := &apiMessagePart{
		MimeType: "multipart/alternative",
		Parts: []apiMessagePart{
			{MimeType: "text/html"},
			{MimeType: "multipart/related", Parts: []apiMessagePart{
				{MimeType: "text/plain", Body: struct {
					Data string `json:"data"`
				}{Data: "aGVsbG8gd29ybGQ"}}, // "hello world"
			}},
		},
	}
	if got := extractPlainText(part); got != "hello world" {
		t.Fatalf("extractPlainText = %q", got)
	}
}

func TestExtractPlainTextMissing(t *testing.T) {
	part := &apiMessagePart{MimeType: "text/html"}
	if got := extractPlainText(part); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
