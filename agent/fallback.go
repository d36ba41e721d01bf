package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailGetNounRe = regexp.MustCompile(`(?i)\b(email|emails|inbox|unread|mail)\b`)
	emailGetVerbRe = regexp.MustCompile(`(?i)\b(show|check|get|read|list|what|which|any|came|received|new)\b`)

	calendarKeywordRe = regexp.MustCompile(`(?i)\b(create|add|schedule|meeting|event|appointment)\b`)

	calendarTitleRe = regexp.MustCompile(`(?i)\b(?:create|add|schedule)\s+(?:an?\s+|new\s+)?(?:event|meeting|appointment)?\s*(?:called|titled|named|for|about|:)?\s*(.+)$`)
	calendarDateRe  = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
	calendarTimeRe  = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})\b`)
)

// fallbackClassifier guarantees a record when both regex stages declined
// and the model stage failed. Ordered keyword checks only; never errors.
type fallbackClassifier struct{}

func (fallbackClassifier) Name() string { return "keyword_fallback" }

func (fallbackClassifier) TryExtract(_ context.Context, text string, _ SessionEntry) (*IntentRecord, error) {
	if rec := fallbackImage(text); rec != nil {
		return rec, nil
	}
	if rec := fallbackEmailSend(text); rec != nil {
		return rec, nil
	}
	if rec := fallbackEmailGet(text); rec != nil {
		return rec, nil
	}
	if rec := fallbackCalendar(text); rec != nil {
		return rec, nil
	}
	rec := IntentRecord{
		Category:   CategoryGeneralChat,
		Confidence: 0.7,
		Parameters: Params{},
		ReplyText:  genericReply,
	}
	return &rec, nil
}

func fallbackImage(text string) *IntentRecord {
	if !imageVerbRe.MatchString(text) || !imageNounRe.MatchString(text) {
		return nil
	}
	prompt := ExtractImagePrompt(text)
	if len(prompt) <= 2 {
		return nil
	}
	return &IntentRecord{
		Category:   CategoryImageCreate,
		Confidence: 0.8,
		Parameters: Params{
			"prompt": prompt,
			"style":  DetectImageStyle(text),
		},
		ReplyText: fmt.Sprintf("I'll create an image of %s for you.", prompt),
	}
}

func fallbackEmailSend(text string) *IntentRecord {
	lower := strings.ToLower(text)
	triggered := false
	for _, kw := range emailSendKeywords {
		if strings.Contains(lower, kw) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil
	}
	address := emailAddressRe.FindString(text)
	if address == "" {
		return nil
	}
	subject, body := extractSubjectBody(text)
	return &IntentRecord{
		Category:   CategoryEmailSend,
		Confidence: 0.8,
		Parameters: Params{
			"to_email": address,
			"subject":  subject,
			"body":     body,
		},
		ReplyText: fmt.Sprintf("I'll send an email to %s.", address),
	}
}

func fallbackEmailGet(text string) *IntentRecord {
	if !emailGetNounRe.MatchString(text) || !emailGetVerbRe.MatchString(text) {
		return nil
	}
	lower := strings.ToLower(text)

	query := "is:inbox"
	timeFilter := ""
	switch {
	case strings.Contains(lower, "today"):
		query = "is:inbox newer_than:1d"
		timeFilter = "today"
	case strings.Contains(lower, "unread"):
		query = "is:unread"
		timeFilter = "unread"
	case strings.Contains(lower, "yesterday"):
		query = "is:inbox newer_than:2d older_than:1d"
		timeFilter = "yesterday"
	}

	params := Params{
		"query":       query,
		"max_results": 20,
	}
	if timeFilter != "" {
		params["time_filter"] = timeFilter
	}
	return &IntentRecord{
		Category:   CategoryEmailGet,
		Confidence: 0.8,
		Parameters: params,
		ReplyText:  "Let me check your emails.",
	}
}

func fallbackCalendar(text string) *IntentRecord {
	if !calendarKeywordRe.MatchString(text) {
		return nil
	}

	params := Params{"duration": "1 hour"}
	if m := calendarDateRe.FindStringSubmatch(text); len(m) >= 2 {
		params["date"] = m[1]
	}
	if m := calendarTimeRe.FindStringSubmatch(text); len(m) >= 2 {
		params["time"] = m[1]
	}
	if title := extractCalendarTitle(text); title != "" {
		params["title"] = title
	}
	if attendees := emailAddressRe.FindAllString(text, -1); len(attendees) > 0 {
		params["attendees"] = attendees
	}
	return &IntentRecord{
		Category:   CategoryCalendarCreate,
		Confidence: 0.8,
		Parameters: params,
		ReplyText:  "I'll set that up on your calendar.",
	}
}

// extractCalendarTitle takes everything after the scheduling keywords and
// cuts the tail off at the first date or time token.
func extractCalendarTitle(text string) string {
	m := calendarTitleRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	title := m[1]
	cut := len(title)
	if loc := calendarDateRe.FindStringIndex(title); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := calendarTimeRe.FindStringIndex(title); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	title = strings.TrimSpace(title[:cut])
	title = strings.TrimSuffix(title, " at")
	title = strings.TrimSuffix(title, " on")
	title = strings.Trim(title, " .,:-")
	if title == "" {
		return ""
	}
	return titleWords(title)
}
