package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/majordomo-ai/majordomo/llm"
)

type stubLLM struct {
	text  string
	err   error
	calls int
	last  llm.Request
}

func (s *stubLLM) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return llm.Result{}, s.err
	}
	return llm.Result{Text: s.text}, nil
}

func newTestResolver(client llm.Client) *Resolver {
	return NewResolver(client, "test-model", nil)
}

func TestResolveEmailWithAddress(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("should not be called")}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "Send an email to john@example.com with the subject hello and the message this is a test", SessionEntry{})

	if rec.Category != CategoryEmailSend {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.Confidence != 0.9 {
		t.Fatalf("confidence = %v", rec.Confidence)
	}
	if got := rec.Parameters.String("to_email"); got != "john@example.com" {
		t.Fatalf("to_email = %q", got)
	}
	if got := rec.Parameters.String("subject"); got != "hello" {
		t.Fatalf("subject = %q", got)
	}
	if got := rec.Parameters.String("body"); got != "this is a test" {
		t.Fatalf("body = %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("llm called %d times for a regex-resolvable input", client.calls)
	}
}

func TestResolveImageRequest(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("should not be called")}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "Create an image of a sunset over the mountains in watercolor style", SessionEntry{})

	if rec.Category != CategoryImageCreate {
		t.Fatalf("category = %q", rec.Category)
	}
	if got := rec.Parameters.String("prompt"); got != "a sunset over the mountains" {
		t.Fatalf("prompt = %q", got)
	}
	if got := rec.Parameters.String("style"); got != "watercolor" {
		t.Fatalf("style = %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("llm called %d times for a regex-resolvable input", client.calls)
	}
}

func TestResolveStructuredLLM(t *testing.T) {
	client := &stubLLM{text: "```json\n{\"intent\": \"calendar_create\", \"confidence\": 0.85, \"parameters\": {\"title\": \"Dentist\", \"date\": \"tomorrow\", \"time\": \"10 AM\"}, \"response_text\": \"Booking your dentist appointment.\"}\n```"}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "I need to see the dentist tomorrow morning at ten", SessionEntry{})

	if rec.Category != CategoryCalendarCreate {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.Confidence != 0.85 {
		t.Fatalf("confidence = %v", rec.Confidence)
	}
	if got := rec.Parameters.String("title"); got != "Dentist" {
		t.Fatalf("title = %q", got)
	}
	if rec.ReplyText != "Booking your dentist appointment." {
		t.Fatalf("reply = %q", rec.ReplyText)
	}
	if !client.last.ForceJSON {
		t.Fatal("structured stage did not force JSON output")
	}
}

func TestResolveFallbackCalendar(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("backend down")}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "Schedule a meeting called Interview Meeting tomorrow at 4 PM", SessionEntry{})

	if rec.Category != CategoryCalendarCreate {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.Confidence != 0.8 {
		t.Fatalf("confidence = %v", rec.Confidence)
	}
	if got := rec.Parameters.String("title"); got != "Interview Meeting" {
		t.Fatalf("title = %q", got)
	}
	if got := rec.Parameters.String("date"); got != "tomorrow" {
		t.Fatalf("date = %q", got)
	}
	if got := rec.Parameters.String("time"); got != "4 PM" {
		t.Fatalf("time = %q", got)
	}
	if got := rec.Parameters.String("duration"); got != "1 hour" {
		t.Fatalf("duration = %q", got)
	}
}

func TestResolveFallbackEmailGet(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("backend down")}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "What emails came today?", SessionEntry{})

	if rec.Category != CategoryEmailGet {
		t.Fatalf("category = %q", rec.Category)
	}
	if got := rec.Parameters.String("query"); got != "is:inbox newer_than:1d" {
		t.Fatalf("query = %q", got)
	}
	if got := rec.Parameters.String("time_filter"); got != "today" {
		t.Fatalf("time_filter = %q", got)
	}
	if got := rec.Parameters.Int("max_results", 0); got != 20 {
		t.Fatalf("max_results = %d", got)
	}
}

func TestResolveGeneralChatWhenEverythingDegrades(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("backend down")}
	r := newTestResolver(client)

	rec := r.Resolve(context.Background(), "How are you doing?", SessionEntry{})

	if rec.Category != CategoryGeneralChat {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.Confidence != 0.7 {
		t.Fatalf("confidence = %v", rec.Confidence)
	}
	if rec.ReplyText == "" {
		t.Fatal("empty reply text")
	}
}

func TestResolveEmptyInput(t *testing.T) {
	r := newTestResolver(&stubLLM{err: fmt.Errorf("backend down")})

	rec := r.Resolve(context.Background(), "   ", SessionEntry{})
	if rec.Category != CategoryGeneralChat {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.Parameters == nil {
		t.Fatal("nil parameters")
	}
}
