package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/majordomo-ai/majordomo/calendar"
	"github.com/majordomo-ai/majordomo/gmail"
	"github.com/majordomo-ai/majordomo/internal/jsonx"
	"github.com/majordomo-ai/majordomo/internal/tmpfiles"
	"github.com/majordomo-ai/majordomo/llm"
)

// CalendarService is the calendar collaborator surface the dispatcher
// needs. *calendar.Service satisfies it.
type CalendarService interface {
	CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.EventDetails, error)
	ListEvents(ctx context.Context, date string, maxResults int) ([]calendar.EventDetails, error)
	UpdateEvent(ctx context.Context, eventID string, in calendar.EventInput) (*calendar.EventDetails, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// EmailService is the mail collaborator surface. *gmail.Service satisfies it.
type EmailService interface {
	Send(ctx context.Context, to, subject, body string) (*gmail.SendReceipt, error)
	List(ctx context.Context, query string, maxResults int, includeBody bool) ([]gmail.EmailSummary, error)
	Delete(ctx context.Context, messageID string) error
}

// ImageService is the image collaborator surface. *imagegen.Client
// satisfies it.
type ImageService interface {
	Generate(ctx context.Context, prompt, style, size string) ([]byte, error)
	Edit(ctx context.Context, source []byte, instructions string) ([]byte, error)
}

// Attachment carries media from the triggering message, such as the
// photo a user wants edited.
type Attachment struct {
	ImagePath string
}

// ActionResult is the outcome of dispatching one intent.
type ActionResult struct {
	Category           Category
	Success            bool
	ReplyText          string
	ImagePath          string
	NeedsClarification bool
	Questions          []string
}

// Dispatcher routes a resolved intent to the matching collaborator.
// Collaborators are optional; a nil one turns its intents into a polite
// "not configured" reply instead of a panic.
type Dispatcher struct {
	calendar CalendarService
	email    EmailService
	images   ImageService
	client   llm.Client
	model    string
	imageDir *tmpfiles.Dir
	validate func(string) error
	logger   *slog.Logger
}

// DispatcherConfig wires the dispatcher's collaborators.
type DispatcherConfig struct {
	Calendar CalendarService
	Email    EmailService
	Images   ImageService
	// LLM drafts email content when the user didn't dictate it.
	LLM   llm.Client
	Model string
	// ImageDir receives generated and edited images.
	ImageDir *tmpfiles.Dir
	// ValidateImage vets prompts before any generation call.
	ValidateImage func(string) error
	Logger        *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validate := cfg.ValidateImage
	if validate == nil {
		validate = func(string) error { return nil }
	}
	return &Dispatcher{
		calendar: cfg.Calendar,
		email:    cfg.Email,
		images:   cfg.Images,
		client:   cfg.LLM,
		model:    cfg.Model,
		imageDir: cfg.ImageDir,
		validate: validate,
		logger:   logger,
	}
}

// Dispatch executes the action the record calls for. It never calls a
// collaborator while required parameters are missing; those turns come
// back as clarification results instead.
func (d *Dispatcher) Dispatch(ctx context.Context, rec IntentRecord, userID string, att *Attachment) ActionResult {
	if rec.NeedsClarification {
		return ActionResult{
			Category:           rec.Category,
			Success:            false,
			ReplyText:          rec.ReplyText,
			NeedsClarification: true,
			Questions:          rec.ClarificationQuestions,
		}
	}

	switch rec.Category {
	case CategoryCalendarCreate:
		return d.calendarCreate(ctx, rec)
	case CategoryCalendarGet:
		return d.calendarGet(ctx, rec)
	case CategoryCalendarUpdate:
		return d.calendarUpdate(ctx, rec)
	case CategoryCalendarDelete:
		return d.calendarDelete(ctx, rec)
	case CategoryEmailSend:
		return d.emailSend(ctx, rec)
	case CategoryEmailGet:
		return d.emailGet(ctx, rec)
	case CategoryEmailDelete:
		return d.emailDelete(ctx, rec)
	case CategoryImageCreate:
		return d.imageCreate(ctx, rec)
	case CategoryImageEdit:
		return d.imageEdit(ctx, rec, att)
	default:
		return ActionResult{Category: CategoryGeneralChat, Success: true, ReplyText: rec.ReplyText}
	}
}

// clarify builds the result for a turn whose action cannot run yet. The
// action did not happen, so the result is not a success; that also keeps
// the composer from speaking clarification prompts.
func clarify(category Category, questions ...string) ActionResult {
	return ActionResult{
		Category:           category,
		Success:            false,
		ReplyText:          "I need a bit more information:\n" + strings.Join(questions, "\n"),
		NeedsClarification: true,
		Questions:          questions,
	}
}

func (d *Dispatcher) fail(category Category, userMsg string, err error) ActionResult {
	d.logger.Error("action_failed", "category", string(category), "error", err.Error())
	return ActionResult{
		Category:  category,
		Success:   false,
		ReplyText: fmt.Sprintf("%s: %v", userMsg, err),
	}
}

func notConfigured(category Category, what string) ActionResult {
	return ActionResult{
		Category:  category,
		Success:   false,
		ReplyText: fmt.Sprintf("Sorry, %s is not set up yet.", what),
	}
}

func (d *Dispatcher) calendarCreate(ctx context.Context, rec IntentRecord) ActionResult {
	if d.calendar == nil {
		return notConfigured(rec.Category, "calendar access")
	}

	var questions []string
	if rec.Parameters.String("title") == "" {
		questions = append(questions, "What should the event be called?")
	}
	if rec.Parameters.String("date") == "" {
		questions = append(questions, "What date is the event?")
	}
	if rec.Parameters.String("time") == "" {
		questions = append(questions, "What time should it start?")
	}
	if len(questions) > 0 {
		return clarify(rec.Category, questions...)
	}

	in := calendar.EventInput{
		Title:       rec.Parameters.String("title"),
		Date:        rec.Parameters.String("date"),
		Time:        rec.Parameters.String("time"),
		Duration:    rec.Parameters.String("duration"),
		Description: rec.Parameters.String("description"),
		Attendees:   rec.Parameters.StringList("attendees"),
	}
	ev, err := d.calendar.CreateEvent(ctx, in)
	if err != nil {
		return d.fail(rec.Category, "Failed to create event", err)
	}

	reply := fmt.Sprintf("✅ Event created: %s on %s", ev.Title, ev.Start.Format("Monday, January 2 at 3:04 PM"))
	if ev.Link != "" {
		reply += "\n" + ev.Link
	}
	if len(ev.Attendees) > 0 {
		reply += "\n\nWould you like me to send email reminders to the attendees?"
	}
	return ActionResult{Category: rec.Category, Success: true, ReplyText: reply}
}

func (d *Dispatcher) calendarGet(ctx context.Context, rec IntentRecord) ActionResult {
	if d.calendar == nil {
		return notConfigured(rec.Category, "calendar access")
	}

	// An empty date means the collaborator's default window (the next
	// 7 days), not today.
	date := rec.Parameters.String("date")
	label := date
	if label == "" {
		label = "the next 7 days"
	}
	events, err := d.calendar.ListEvents(ctx, date, rec.Parameters.Int("max_results", 10))
	if err != nil {
		return d.fail(rec.Category, "Failed to fetch events", err)
	}
	if len(events) == 0 {
		return ActionResult{
			Category:  rec.Category,
			Success:   true,
			ReplyText: fmt.Sprintf("You have no events scheduled for %s.", label),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 You have %d event(s) for %s:\n", len(events), label)
	for _, ev := range events {
		fmt.Fprintf(&b, "• %s — %s\n", ev.Start.Format("3:04 PM"), ev.Title)
	}
	return ActionResult{Category: rec.Category, Success: true, ReplyText: strings.TrimRight(b.String(), "\n")}
}

func (d *Dispatcher) calendarUpdate(ctx context.Context, rec IntentRecord) ActionResult {
	if d.calendar == nil {
		return notConfigured(rec.Category, "calendar access")
	}
	eventID := rec.Parameters.String("event_id")
	if eventID == "" {
		return clarify(rec.Category, "Which event would you like to update?")
	}

	in := calendar.EventInput{
		Title:       rec.Parameters.String("title"),
		Date:        rec.Parameters.String("date"),
		Time:        rec.Parameters.String("time"),
		Duration:    rec.Parameters.String("duration"),
		Description: rec.Parameters.String("description"),
	}
	ev, err := d.calendar.UpdateEvent(ctx, eventID, in)
	if err != nil {
		return d.fail(rec.Category, "Failed to update event", err)
	}
	return ActionResult{
		Category:  rec.Category,
		Success:   true,
		ReplyText: fmt.Sprintf("✅ Event updated: %s on %s", ev.Title, ev.Start.Format("Monday, January 2 at 3:04 PM")),
	}
}

func (d *Dispatcher) calendarDelete(ctx context.Context, rec IntentRecord) ActionResult {
	if d.calendar == nil {
		return notConfigured(rec.Category, "calendar access")
	}
	eventID := rec.Parameters.String("event_id")
	if eventID == "" {
		return clarify(rec.Category, "Which event would you like to delete?")
	}
	if err := d.calendar.DeleteEvent(ctx, eventID); err != nil {
		return d.fail(rec.Category, "Failed to delete event", err)
	}
	return ActionResult{Category: rec.Category, Success: true, ReplyText: "✅ Event deleted."}
}

func (d *Dispatcher) emailSend(ctx context.Context, rec IntentRecord) ActionResult {
	if d.email == nil {
		return notConfigured(rec.Category, "email access")
	}
	to := rec.Parameters.String("to_email")
	if to == "" {
		return clarify(rec.Category, "Who should I send the email to?")
	}

	subject := rec.Parameters.String("subject")
	body := rec.Parameters.String("body")
	if body == "" {
		body = rec.Parameters.String("message_content")
	}
	if body == "" || body == defaultEmailBody {
		genSubject, genBody := d.draftEmail(ctx, to, subject, rec.Parameters.String("purpose"))
		if genBody != "" {
			body = genBody
		}
		if subject == "" {
			subject = genSubject
		}
	}
	if body == "" {
		body = defaultEmailBody
	}
	if subject == "" {
		subject = synthesizeSubject(body)
	}

	receipt, err := d.email.Send(ctx, to, subject, body)
	if err != nil {
		return d.fail(rec.Category, "Failed to send email", err)
	}
	d.logger.Info("email_sent", "to", to, "message_id", receipt.MessageID)
	return ActionResult{
		Category:  rec.Category,
		Success:   true,
		ReplyText: fmt.Sprintf("✅ Email sent to %s\nSubject: %s", to, subject),
	}
}

// draftEmail asks the model to compose the message when the user didn't
// dictate one, steering it with the stated purpose when present. Returns
// empty strings on any failure; the caller applies the synthesis defaults.
func (d *Dispatcher) draftEmail(ctx context.Context, to, subject, purpose string) (string, string) {
	if d.client == nil {
		return "", ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, friendly email (2-4 sentences, plain text) to %s.", to)
	if purpose != "" {
		fmt.Fprintf(&b, " The purpose of the email: %s.", purpose)
	}
	if subject != "" {
		fmt.Fprintf(&b, " The subject is %q.", subject)
	}
	b.WriteString(` Reply with only a JSON object: {"subject": "...", "body": "..."}.`)

	res, err := d.client.Chat(ctx, llm.Request{
		Model:     d.model,
		ForceJSON: true,
		Messages:  []llm.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		d.logger.Warn("email_draft_failed", "error", err.Error())
		return "", ""
	}
	obj, err := jsonx.ExtractObject(res.Text)
	if err != nil {
		d.logger.Warn("email_draft_failed", "error", err.Error())
		return "", ""
	}
	genSubject, _ := obj["subject"].(string)
	genBody, _ := obj["body"].(string)
	return strings.TrimSpace(genSubject), strings.TrimSpace(genBody)
}

const emailListDetailCap = 10

func (d *Dispatcher) emailGet(ctx context.Context, rec IntentRecord) ActionResult {
	if d.email == nil {
		return notConfigured(rec.Category, "email access")
	}

	query := rec.Parameters.String("query")
	if query == "" {
		query = "is:inbox"
	}
	maxResults := rec.Parameters.Int("max_results", 10)
	emails, err := d.email.List(ctx, query, maxResults, rec.Parameters.Bool("include_body"))
	if err != nil {
		return d.fail(rec.Category, "Failed to fetch emails", err)
	}
	if len(emails) == 0 {
		return ActionResult{Category: rec.Category, Success: true, ReplyText: "📭 No emails found."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📧 Found %d email(s):\n", len(emails))
	for i, em := range emails {
		if i == emailListDetailCap {
			fmt.Fprintf(&b, "…and %d more.", len(emails)-emailListDetailCap)
			break
		}
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, em.Sender, em.Subject)
		if em.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", em.Snippet)
		}
	}
	return ActionResult{Category: rec.Category, Success: true, ReplyText: strings.TrimRight(b.String(), "\n")}
}

func (d *Dispatcher) emailDelete(ctx context.Context, rec IntentRecord) ActionResult {
	if d.email == nil {
		return notConfigured(rec.Category, "email access")
	}
	id := rec.Parameters.String("message_id")
	if id == "" {
		return clarify(rec.Category, "Which email would you like to delete?")
	}
	if err := d.email.Delete(ctx, id); err != nil {
		return d.fail(rec.Category, "Failed to delete email", err)
	}
	return ActionResult{Category: rec.Category, Success: true, ReplyText: "🗑️ Email moved to trash."}
}

func (d *Dispatcher) imageCreate(ctx context.Context, rec IntentRecord) ActionResult {
	if d.images == nil {
		return notConfigured(rec.Category, "image generation")
	}
	prompt := rec.Parameters.String("prompt")
	if prompt == "" {
		return clarify(rec.Category, "What would you like me to create an image of?")
	}
	if err := d.validate(prompt); err != nil {
		return ActionResult{
			Category:  rec.Category,
			Success:   false,
			ReplyText: fmt.Sprintf("I can't generate that image: %v", err),
		}
	}

	data, err := d.images.Generate(ctx, prompt, rec.Parameters.String("style"), rec.Parameters.String("size"))
	if err != nil {
		return d.fail(rec.Category, "Failed to generate image", err)
	}
	path, err := d.saveImage(data)
	if err != nil {
		return d.fail(rec.Category, "Failed to save image", err)
	}

	reply := fmt.Sprintf("🎨 Here's your image: %s", prompt)
	// Delivery is one image per turn; tell the user when they asked for more.
	if n := rec.Parameters.Int("num_images", 1); n > 1 {
		reply += "\n(I can generate one image at a time.)"
	}
	return ActionResult{
		Category:  rec.Category,
		Success:   true,
		ReplyText: reply,
		ImagePath: path,
	}
}

func (d *Dispatcher) imageEdit(ctx context.Context, rec IntentRecord, att *Attachment) ActionResult {
	if d.images == nil {
		return notConfigured(rec.Category, "image generation")
	}
	instructions := rec.Parameters.String("modifications")
	if instructions == "" {
		instructions = rec.Parameters.String("prompt")
	}

	var questions []string
	if instructions == "" {
		questions = append(questions, "What changes would you like me to make?")
	}
	if att == nil || att.ImagePath == "" {
		questions = append(questions, "Please send the photo you'd like me to edit.")
	}
	if len(questions) > 0 {
		return clarify(rec.Category, questions...)
	}
	if err := d.validate(instructions); err != nil {
		return ActionResult{
			Category:  rec.Category,
			Success:   false,
			ReplyText: fmt.Sprintf("I can't make that edit: %v", err),
		}
	}

	source, err := os.ReadFile(att.ImagePath)
	if err != nil {
		return d.fail(rec.Category, "Failed to read the photo", err)
	}
	data, err := d.images.Edit(ctx, source, instructions)
	if err != nil {
		return d.fail(rec.Category, "Failed to edit image", err)
	}
	path, err := d.saveImage(data)
	if err != nil {
		return d.fail(rec.Category, "Failed to save image", err)
	}
	return ActionResult{
		Category:  rec.Category,
		Success:   true,
		ReplyText: "🎨 Here's your edited image.",
		ImagePath: path,
	}
}

func (d *Dispatcher) saveImage(data []byte) (string, error) {
	if d.imageDir == nil {
		return "", fmt.Errorf("no image directory configured")
	}
	path := d.imageDir.NewFile(".png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
