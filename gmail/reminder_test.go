package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestReminderMessage(t *testing.T) {
	start := time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC)
	subject, body := reminderMessage("Interview Meeting", start, "https://cal.example/ev1")

	if subject != "Reminder: Interview Meeting" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		"Interview Meeting",
		"Thursday, March 5, 2026 at 4:00 PM",
		"Event link: https://cal.example/ev1",
		"See you there!",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	_, body = reminderMessage("Standup", start, "")
	if strings.Contains(body, "Event link") {
		t.Fatalf("link line present without a link:\n%s", body)
	}
}

func TestSendMeetingReminderMailsEachAttendee(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/messages/send") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(payload.Raw)
		if err != nil {
			t.Errorf("decode raw: %v", err)
		}
		sent = append(sent, string(raw))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "m1", "threadId": "t1"})
	}))
	defer srv.Close()

	s := &Service{httpClient: srv.Client(), baseURL: srv.URL}
	start := time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC)
	attendees := []string{"ann@co.com", "bob@co.com"}

	if err := s.SendMeetingReminder(context.Background(), attendees, "Interview Meeting", start, "https://cal.example/ev1"); err != nil {
		t.Fatalf("SendMeetingReminder: %v", err)
	}
	if len(sent) != len(attendees) {
		t.Fatalf("sent %d messages, want %d", len(sent), len(attendees))
	}
	for i, raw := range sent {
		if !strings.Contains(raw, "To: "+attendees[i]) {
			t.Fatalf("message %d not addressed to %s:\n%s", i, attendees[i], raw)
		}
		if !strings.Contains(raw, "Subject: Reminder: Interview Meeting") {
			t.Fatalf("message %d missing reminder subject:\n%s", i, raw)
		}
	}
}

func TestSendMeetingReminderStopsOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := &Service{httpClient: srv.Client(), baseURL: srv.URL}
	err := s.SendMeetingReminder(context.Background(), []string{"ann@co.com", "bob@co.com"}, "Standup", time.Now(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "remind ann@co.com") {
		t.Fatalf("error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (stop at first failure)", calls)
	}
}
