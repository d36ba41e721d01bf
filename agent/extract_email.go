package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Extractor is one stage of the resolution chain. A nil record with a nil
// error means "not my shape, try the next stage"; an error means the stage
// itself failed and the chain continues. The session entry carries the
// user's prior turn; regex stages ignore it.
type Extractor interface {
	Name() string
	TryExtract(ctx context.Context, text string, session SessionEntry) (*IntentRecord, error)
}

var emailAddressRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

var emailSendKeywords = []string{"send", "email", "mail", "message", "write to", "contact"}

// The template lists below are order-sensitive: each is applied top to
// bottom and the first match wins. Reordering changes extraction results.
var emailBodyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:message|body)\s+(?:is\s+|:\s*)?(.+)$`),
	regexp.MustCompile(`(?i)\bsay(?:ing)?(?:\s+to\s+(?:him|her|them))?\s+(?:that\s+)?(.+)$`),
	regexp.MustCompile(`(?i)\btell\s+(?:(?:him|her|them)\s+)?(?:that\s+)?(.+)$`),
	regexp.MustCompile(`(?i)\bwrite\s+(?:that\s+)?(.+)$`),
	regexp.MustCompile(`(?i)\bemail\s+to\s+[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\s+(?:and\s+)?(.+)$`),
}

var emailSubjectPattern = regexp.MustCompile(`(?i)\bsubject\s+(?:is\s+|:\s*)?(.+)$`)

// subjectTailRe trims the rest of the sentence once a body clause starts,
// since RE2 has no lookahead.
var subjectTailRe = regexp.MustCompile(`(?i)\s+(?:and|with)\s+(?:the\s+)?(?:message|body|say(?:ing)?|tell)\b.*$`)

var bodyTailRe = regexp.MustCompile(`(?i)\s+(?:and|with)\s+(?:the\s+)?subject\b.*$`)

const (
	defaultEmailBody    = "Hello, this is a message from your AI assistant."
	defaultEmailSubject = "Message from AI Assistant"
)

// emailExtractor recognizes email-send requests that carry a literal
// address. A literal address is unambiguous, so this stage runs before any
// model call.
type emailExtractor struct{}

func (emailExtractor) Name() string { return "email_regex" }

func (emailExtractor) TryExtract(_ context.Context, text string, _ SessionEntry) (*IntentRecord, error) {
	lower := strings.ToLower(text)
	triggered := false
	for _, kw := range emailSendKeywords {
		if strings.Contains(lower, kw) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil, nil
	}
	address := emailAddressRe.FindString(text)
	if address == "" {
		return nil, nil
	}

	subject, body := extractSubjectBody(text)

	rec := IntentRecord{
		Category:   CategoryEmailSend,
		Confidence: 0.9,
		Parameters: Params{
			"to_email": address,
			"subject":  subject,
			"body":     body,
		},
		ReplyText: fmt.Sprintf("I'll send an email to %s with the subject %q.", address, subject),
	}
	return &rec, nil
}

func extractSubjectBody(text string) (subject, body string) {
	if m := emailSubjectPattern.FindStringSubmatch(text); len(m) >= 2 {
		subject = strings.TrimSpace(subjectTailRe.ReplaceAllString(m[1], ""))
		subject = strings.Trim(subject, `"'`)
	}
	for _, re := range emailBodyPatterns {
		if m := re.FindStringSubmatch(text); len(m) >= 2 {
			body = strings.TrimSpace(bodyTailRe.ReplaceAllString(m[1], ""))
			body = strings.Trim(body, `"'`)
			break
		}
	}
	if body == "" {
		body = defaultEmailBody
	}
	if subject == "" {
		subject = synthesizeSubject(body)
	}
	return subject, body
}

// synthesizeSubject derives a subject from the first words of the body,
// title-cased.
func synthesizeSubject(body string) string {
	if len(strings.TrimSpace(body)) <= 5 || body == defaultEmailBody {
		return defaultEmailSubject
	}
	words := strings.Fields(body)
	if len(words) > 4 {
		words = words[:4]
	}
	return titleWords(strings.Join(words, " "))
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
