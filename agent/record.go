// Package agent contains the conversational core: intent resolution,
// action dispatch, and response composition.
package agent

import (
	"strconv"
	"strings"
)

type Category string

const (
	CategoryCalendarCreate Category = "calendar_create"
	CategoryCalendarGet    Category = "calendar_get"
	CategoryCalendarUpdate Category = "calendar_update"
	CategoryCalendarDelete Category = "calendar_delete"
	CategoryEmailSend      Category = "email_send"
	CategoryEmailGet       Category = "email_get"
	CategoryEmailDelete    Category = "email_delete"
	CategoryImageCreate    Category = "image_create"
	CategoryImageEdit      Category = "image_edit"
	CategoryGeneralChat    Category = "general_chat"
)

// NormalizeCategory maps backend aliases onto the canonical set and folds
// anything unrecognized into general_chat.
func NormalizeCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryCalendarCreate, CategoryCalendarGet, CategoryCalendarUpdate,
		CategoryCalendarDelete, CategoryEmailSend, CategoryEmailGet,
		CategoryEmailDelete, CategoryImageCreate, CategoryImageEdit,
		CategoryGeneralChat:
		return Category(strings.ToLower(strings.TrimSpace(raw)))
	case "image_generate":
		return CategoryImageCreate
	case "email_draft":
		return CategoryEmailSend
	default:
		return CategoryGeneralChat
	}
}

// Params holds category-specific extracted parameters. Values are strings,
// string lists, or numbers depending on the key.
type Params map[string]any

func (p Params) String(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func (p Params) StringList(key string) []string {
	if p == nil {
		return nil
	}
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (p Params) Int(key string, fallback int) int {
	if p == nil {
		return fallback
	}
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func (p Params) Bool(key string) bool {
	if p == nil {
		return false
	}
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// IntentRecord is the canonical output of the resolution pipeline. Every
// resolve call produces exactly one record, contributed by exactly one
// extraction stage.
type IntentRecord struct {
	Category               Category `json:"category"`
	Confidence             float64  `json:"confidence"`
	Parameters             Params   `json:"parameters"`
	ReplyText              string   `json:"reply_text"`
	NeedsClarification     bool     `json:"needs_clarification"`
	ClarificationQuestions []string `json:"clarification_questions"`
	SuggestedActions       []string `json:"suggested_actions,omitempty"`
}

const genericReply = "I'm here to help with your calendar, email, and images. What would you like to do?"

func (r IntentRecord) normalized() IntentRecord {
	if r.Category == "" {
		r.Category = CategoryGeneralChat
	}
	if r.Parameters == nil {
		r.Parameters = Params{}
	}
	if strings.TrimSpace(r.ReplyText) == "" {
		r.ReplyText = genericReply
	}
	if !r.NeedsClarification {
		r.ClarificationQuestions = nil
	}
	return r
}
