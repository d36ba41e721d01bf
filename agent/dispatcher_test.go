package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/majordomo-ai/majordomo/calendar"
	"github.com/majordomo-ai/majordomo/gmail"
	"github.com/majordomo-ai/majordomo/internal/tmpfiles"
)

type fakeCalendar struct {
	createCalls int
	lastInput   calendar.EventInput
	createErr   error
	events      []calendar.EventDetails
	lastDate    string
}

func (f *fakeCalendar) CreateEvent(_ context.Context, in calendar.EventInput) (*calendar.EventDetails, error) {
	f.createCalls++
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &calendar.EventDetails{
		ID:        "ev1",
		Title:     in.Title,
		Start:     time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC),
		Link:      "https://cal.example/ev1",
		Attendees: in.Attendees,
	}, nil
}

func (f *fakeCalendar) ListEvents(_ context.Context, date string, _ int) ([]calendar.EventDetails, error) {
	f.lastDate = date
	return f.events, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, id string, in calendar.EventInput) (*calendar.EventDetails, error) {
	return &calendar.EventDetails{ID: id, Title: in.Title, Start: time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeCalendar) DeleteEvent(context.Context, string) error { return nil }

type fakeEmail struct {
	sendCalls             int
	lastTo, lastSub, body string
	sendErr               error
	listed                []gmail.EmailSummary
	lastQuery             string
	lastMax               int
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) (*gmail.SendReceipt, error) {
	f.sendCalls++
	f.lastTo, f.lastSub, f.body = to, subject, body
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &gmail.SendReceipt{MessageID: "m1"}, nil
}

func (f *fakeEmail) List(_ context.Context, query string, maxResults int, _ bool) ([]gmail.EmailSummary, error) {
	f.lastQuery = query
	f.lastMax = maxResults
	return f.listed, nil
}

func (f *fakeEmail) Delete(context.Context, string) error { return nil }

type fakeImages struct {
	generateCalls int
	editCalls     int
	genErr        error
}

func (f *fakeImages) Generate(context.Context, string, string, string) ([]byte, error) {
	f.generateCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return []byte("png-bytes"), nil
}

func (f *fakeImages) Edit(context.Context, []byte, string) ([]byte, error) {
	f.editCalls++
	return []byte("edited-bytes"), nil
}

func newTestDispatcher(t *testing.T, cfg DispatcherConfig) *Dispatcher {
	t.Helper()
	if cfg.ImageDir == nil {
		dir, err := tmpfiles.NewDir(t.TempDir(), "images")
		if err != nil {
			t.Fatalf("tmpfiles.NewDir: %v", err)
		}
		cfg.ImageDir = dir
	}
	return NewDispatcher(cfg)
}

func TestDispatchCalendarCreateMissingFields(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, DispatcherConfig{Calendar: cal})

	rec := IntentRecord{
		Category:   CategoryCalendarCreate,
		Parameters: Params{"title": "Standup"},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.NeedsClarification {
		t.Fatalf("expected clarification, got %#v", res)
	}
	if res.Success {
		t.Fatal("clarification reported as success")
	}
	if len(res.Questions) != 2 {
		t.Fatalf("questions = %#v, want one per missing field", res.Questions)
	}
	if cal.createCalls != 0 {
		t.Fatal("collaborator called despite missing parameters")
	}
}

func TestDispatchCalendarCreateOffersReminders(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, DispatcherConfig{Calendar: cal})

	rec := IntentRecord{
		Category: CategoryCalendarCreate,
		Parameters: Params{
			"title":     "Interview Meeting",
			"date":      "tomorrow",
			"time":      "4 PM",
			"attendees": []any{"ann@co.com"},
		},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if cal.lastInput.Title != "Interview Meeting" {
		t.Fatalf("input = %#v", cal.lastInput)
	}
	if !strings.Contains(res.ReplyText, "send email reminders") {
		t.Fatalf("no reminder offer in %q", res.ReplyText)
	}
}

func TestDispatchCalendarCreateFailure(t *testing.T) {
	cal := &fakeCalendar{createErr: fmt.Errorf("calendar API 403 Forbidden")}
	d := newTestDispatcher(t, DispatcherConfig{Calendar: cal})

	rec := IntentRecord{
		Category:   CategoryCalendarCreate,
		Parameters: Params{"title": "X", "date": "today", "time": "4 PM"},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if res.Success {
		t.Fatal("failure reported as success")
	}
	if !strings.Contains(res.ReplyText, "Failed to create event") || !strings.Contains(res.ReplyText, "403") {
		t.Fatalf("reply = %q", res.ReplyText)
	}
}

func TestDispatchEmailSendMissingRecipient(t *testing.T) {
	em := &fakeEmail{}
	d := newTestDispatcher(t, DispatcherConfig{Email: em})

	rec := IntentRecord{Category: CategoryEmailSend, Parameters: Params{"subject": "hi"}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.NeedsClarification {
		t.Fatalf("expected clarification, got %#v", res)
	}
	if em.sendCalls != 0 {
		t.Fatal("send called without a recipient")
	}
}

func TestDispatchEmailSendDraftsBody(t *testing.T) {
	em := &fakeEmail{}
	client := &stubLLM{text: `{"subject": "Catching Up", "body": "Looking forward to catching up next week."}`}
	d := newTestDispatcher(t, DispatcherConfig{Email: em, LLM: client, Model: "m"})

	rec := IntentRecord{
		Category:   CategoryEmailSend,
		Parameters: Params{"to_email": "a@b.com", "subject": "Catch up"},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if em.body != "Looking forward to catching up next week." {
		t.Fatalf("body = %q", em.body)
	}
	// The user's own subject wins over the generated one.
	if em.lastSub != "Catch up" {
		t.Fatalf("subject = %q", em.lastSub)
	}
	if client.calls != 1 {
		t.Fatalf("draft calls = %d", client.calls)
	}
}

func TestDispatchEmailSendDraftUsesPurpose(t *testing.T) {
	em := &fakeEmail{}
	client := &stubLLM{text: `{"subject": "Thank You", "body": "Thank you for taking the time to interview me."}`}
	d := newTestDispatcher(t, DispatcherConfig{Email: em, LLM: client, Model: "m"})

	rec := IntentRecord{
		Category:   CategoryEmailSend,
		Parameters: Params{"to_email": "a@b.com", "purpose": "thank them for the interview"},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	prompt := client.last.Messages[len(client.last.Messages)-1].Content
	if !strings.Contains(prompt, "thank them for the interview") {
		t.Fatalf("purpose missing from draft prompt: %q", prompt)
	}
	if em.lastSub != "Thank You" {
		t.Fatalf("generated subject not used: %q", em.lastSub)
	}
	if em.body != "Thank you for taking the time to interview me." {
		t.Fatalf("body = %q", em.body)
	}
}

func TestDispatchEmailSendUsesMessageContent(t *testing.T) {
	em := &fakeEmail{}
	client := &stubLLM{text: `{"subject": "x", "body": "y"}`}
	d := newTestDispatcher(t, DispatcherConfig{Email: em, LLM: client, Model: "m"})

	rec := IntentRecord{
		Category:   CategoryEmailSend,
		Parameters: Params{"to_email": "a@b.com", "message_content": "the meeting moved to 3 PM"},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if client.calls != 0 {
		t.Fatal("drafted despite dictated content")
	}
	if em.body != "the meeting moved to 3 PM" {
		t.Fatalf("body = %q", em.body)
	}
	// Missing subject is synthesized from the body's first words.
	if em.lastSub != "The Meeting Moved To" {
		t.Fatalf("subject = %q", em.lastSub)
	}
}

func TestDispatchEmailSendDraftFallsBack(t *testing.T) {
	em := &fakeEmail{}
	client := &stubLLM{err: fmt.Errorf("backend down")}
	d := newTestDispatcher(t, DispatcherConfig{Email: em, LLM: client, Model: "m"})

	rec := IntentRecord{Category: CategoryEmailSend, Parameters: Params{"to_email": "a@b.com"}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if em.body != defaultEmailBody {
		t.Fatalf("body = %q", em.body)
	}
	if em.lastSub != defaultEmailSubject {
		t.Fatalf("subject = %q", em.lastSub)
	}
}

func TestDispatchEmailListCapsDetail(t *testing.T) {
	em := &fakeEmail{}
	for i := 0; i < 12; i++ {
		em.listed = append(em.listed, gmail.EmailSummary{
			Sender:  fmt.Sprintf("sender%d@x.com", i),
			Subject: fmt.Sprintf("mail %d", i),
		})
	}
	d := newTestDispatcher(t, DispatcherConfig{Email: em})

	rec := IntentRecord{Category: CategoryEmailGet, Parameters: Params{}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if em.lastQuery != "is:inbox" {
		t.Fatalf("query = %q", em.lastQuery)
	}
	if !strings.Contains(res.ReplyText, "and 2 more") {
		t.Fatalf("no remainder note in %q", res.ReplyText)
	}
	if strings.Contains(res.ReplyText, "mail 11") {
		t.Fatalf("reply lists past the cap: %q", res.ReplyText)
	}
}

func TestDispatchEmailGetDefaultMaxResults(t *testing.T) {
	em := &fakeEmail{}
	d := newTestDispatcher(t, DispatcherConfig{Email: em})

	rec := IntentRecord{Category: CategoryEmailGet, Parameters: Params{}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if em.lastMax != 10 {
		t.Fatalf("maxResults = %d, want 10", em.lastMax)
	}
}

func TestDispatchCalendarGetUnboundedWindow(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, DispatcherConfig{Calendar: cal})

	rec := IntentRecord{Category: CategoryCalendarGet, Parameters: Params{}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	// The empty date reaches the collaborator untouched so it can apply
	// its 7-day default window.
	if cal.lastDate != "" {
		t.Fatalf("date = %q, want empty", cal.lastDate)
	}
	if !strings.Contains(res.ReplyText, "the next 7 days") {
		t.Fatalf("reply = %q", res.ReplyText)
	}
}

func TestDispatchImageCreateValidatesFirst(t *testing.T) {
	img := &fakeImages{}
	d := newTestDispatcher(t, DispatcherConfig{
		Images:        img,
		ValidateImage: func(string) error { return fmt.Errorf("disallowed content") },
	})

	rec := IntentRecord{Category: CategoryImageCreate, Parameters: Params{"prompt": "something bad"}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if res.Success {
		t.Fatal("validation failure reported as success")
	}
	if img.generateCalls != 0 {
		t.Fatal("generator called for a rejected prompt")
	}
}

func TestDispatchImageCreateWritesFile(t *testing.T) {
	img := &fakeImages{}
	d := newTestDispatcher(t, DispatcherConfig{Images: img})

	rec := IntentRecord{Category: CategoryImageCreate, Parameters: Params{"prompt": "a red dragon"}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if res.ImagePath == "" {
		t.Fatal("no image path in result")
	}
	data, err := os.ReadFile(res.ImagePath)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("image contents = %q", data)
	}
}

func TestDispatchImageCreateNotesSingleImageLimit(t *testing.T) {
	img := &fakeImages{}
	d := newTestDispatcher(t, DispatcherConfig{Images: img})

	rec := IntentRecord{
		Category:   CategoryImageCreate,
		Parameters: Params{"prompt": "a red dragon", "num_images": 3},
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if img.generateCalls != 1 {
		t.Fatalf("generate calls = %d", img.generateCalls)
	}
	if !strings.Contains(res.ReplyText, "one image at a time") {
		t.Fatalf("no limitation note in %q", res.ReplyText)
	}
}

func TestDispatchImageEditNeedsSource(t *testing.T) {
	img := &fakeImages{}
	d := newTestDispatcher(t, DispatcherConfig{Images: img})

	rec := IntentRecord{Category: CategoryImageEdit, Parameters: Params{"modifications": "add a hat"}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.NeedsClarification {
		t.Fatalf("expected clarification, got %#v", res)
	}
	if img.editCalls != 0 {
		t.Fatal("edit called without a source image")
	}
}

func TestDispatchImageEdit(t *testing.T) {
	img := &fakeImages{}
	d := newTestDispatcher(t, DispatcherConfig{Images: img})

	source := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(source, []byte("jpg"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	rec := IntentRecord{Category: CategoryImageEdit, Parameters: Params{"modifications": "add a hat"}}
	res := d.Dispatch(context.Background(), rec, "u1", &Attachment{ImagePath: source})

	if !res.Success {
		t.Fatalf("dispatch failed: %#v", res)
	}
	if img.editCalls != 1 {
		t.Fatalf("edit calls = %d", img.editCalls)
	}
	if res.ImagePath == "" {
		t.Fatal("no image path in result")
	}
}

func TestDispatchClarificationShortCircuits(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, DispatcherConfig{Calendar: cal})

	rec := IntentRecord{
		Category:               CategoryCalendarCreate,
		NeedsClarification:     true,
		ClarificationQuestions: []string{"Which day?"},
		ReplyText:              "Which day works for you?",
	}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.NeedsClarification || res.ReplyText != "Which day works for you?" {
		t.Fatalf("result = %#v", res)
	}
	if res.Success {
		t.Fatal("clarification pass-through reported as success")
	}
	if cal.createCalls != 0 {
		t.Fatal("collaborator called during clarification")
	}
}

func TestDispatchGeneralChatPassThrough(t *testing.T) {
	d := newTestDispatcher(t, DispatcherConfig{})

	rec := IntentRecord{Category: CategoryGeneralChat, ReplyText: "Hello!"}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if !res.Success || res.ReplyText != "Hello!" {
		t.Fatalf("result = %#v", res)
	}
}

func TestDispatchMissingCollaborator(t *testing.T) {
	d := newTestDispatcher(t, DispatcherConfig{})

	rec := IntentRecord{Category: CategoryEmailGet, Parameters: Params{}}
	res := d.Dispatch(context.Background(), rec, "u1", nil)

	if res.Success {
		t.Fatal("missing collaborator reported as success")
	}
	if !strings.Contains(res.ReplyText, "not set up") {
		t.Fatalf("reply = %q", res.ReplyText)
	}
}
