// Package calendar talks to the Google Calendar v3 REST API for the
// primary calendar of the authorized account.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const baseURL = "https://www.googleapis.com/calendar/v3"

// EventInput carries the user-provided fields for creating or updating
// an event. Date, Time and Duration are natural-language strings as they
// arrive from intent extraction.
type EventInput struct {
	Title       string
	Date        string
	Time        string
	Duration    string
	Description string
	Attendees   []string
}

// EventDetails is the subset of a calendar event the assistant reports
// back to the user.
type EventDetails struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Link      string
	Attendees []string
}

type Service struct {
	httpClient *http.Client
	loc        *time.Location
	now        func() time.Time
}

// New builds a calendar service using the given OAuth2 token source.
// timezone is an IANA name like "Asia/Colombo"; empty means local time.
func New(ts oauth2.TokenSource, timezone string) (*Service, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}
	return &Service{
		httpClient: oauth2.NewClient(context.Background(), ts),
		loc:        loc,
		now:        time.Now,
	}, nil
}

type apiEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type apiAttendee struct {
	Email string `json:"email"`
}

type apiEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Start       *apiEventTime `json:"start,omitempty"`
	End         *apiEventTime `json:"end,omitempty"`
	Attendees   []apiAttendee `json:"attendees,omitempty"`
	HTMLLink    string        `json:"htmlLink,omitempty"`
}

type apiEventList struct {
	Items []apiEvent `json:"items"`
}

// CreateEvent parses the natural-language schedule from in and inserts
// the event, notifying attendees.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*EventDetails, error) {
	start, err := ParseDateTime(in.Date, in.Time, s.loc, s.now())
	if err != nil {
		return nil, err
	}
	end := start.Add(ParseDuration(in.Duration))

	body := apiEvent{
		Summary:     in.Title,
		Description: in.Description,
		Start:       &apiEventTime{DateTime: start.Format(time.RFC3339), TimeZone: s.loc.String()},
		End:         &apiEventTime{DateTime: end.Format(time.RFC3339), TimeZone: s.loc.String()},
	}
	for _, a := range in.Attendees {
		body.Attendees = append(body.Attendees, apiAttendee{Email: a})
	}

	var created apiEvent
	u := baseURL + "/calendars/primary/events?sendUpdates=all"
	if err := s.do(ctx, http.MethodPost, u, body, &created); err != nil {
		return nil, err
	}
	return s.details(created), nil
}

// ListEvents returns events for the given natural-language date, ordered
// by start time. An empty date means the next 7 days from now.
func (s *Service) ListEvents(ctx context.Context, date string, maxResults int) ([]EventDetails, error) {
	timeMin, timeMax, err := listWindow(date, s.loc, s.now())
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	q := url.Values{}
	q.Set("timeMin", timeMin.Format(time.RFC3339))
	q.Set("timeMax", timeMax.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", strconv.Itoa(maxResults))

	var list apiEventList
	u := baseURL + "/calendars/primary/events?" + q.Encode()
	if err := s.do(ctx, http.MethodGet, u, nil, &list); err != nil {
		return nil, err
	}

	out := make([]EventDetails, 0, len(list.Items))
	for _, ev := range list.Items {
		out = append(out, *s.details(ev))
	}
	return out, nil
}

// listWindow resolves the query bounds for ListEvents: a single day when
// a date is given, otherwise now through now+7d.
func listWindow(date string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	if strings.TrimSpace(date) == "" {
		start := now.In(loc)
		return start, start.AddDate(0, 0, 7), nil
	}
	day, err := ParseDateTime(date, "12:00 AM", loc, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.AddDate(0, 0, 1), nil
}

// UpdateEvent patches the named event with whichever fields of in are set.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, in EventInput) (*EventDetails, error) {
	patch := apiEvent{Summary: in.Title, Description: in.Description}
	if in.Date != "" || in.Time != "" {
		start, err := ParseDateTime(in.Date, in.Time, s.loc, s.now())
		if err != nil {
			return nil, err
		}
		end := start.Add(ParseDuration(in.Duration))
		patch.Start = &apiEventTime{DateTime: start.Format(time.RFC3339), TimeZone: s.loc.String()}
		patch.End = &apiEventTime{DateTime: end.Format(time.RFC3339), TimeZone: s.loc.String()}
	}

	var updated apiEvent
	u := baseURL + "/calendars/primary/events/" + url.PathEscape(eventID) + "?sendUpdates=all"
	if err := s.do(ctx, http.MethodPatch, u, patch, &updated); err != nil {
		return nil, err
	}
	return s.details(updated), nil
}

// DeleteEvent removes the named event, notifying attendees.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	u := baseURL + "/calendars/primary/events/" + url.PathEscape(eventID) + "?sendUpdates=all"
	return s.do(ctx, http.MethodDelete, u, nil, nil)
}

func (s *Service) details(ev apiEvent) *EventDetails {
	d := &EventDetails{
		ID:    ev.ID,
		Title: ev.Summary,
		Link:  ev.HTMLLink,
	}
	if ev.Start != nil {
		d.Start = parseAPITime(ev.Start, s.loc)
	}
	if ev.End != nil {
		d.End = parseAPITime(ev.End, s.loc)
	}
	for _, a := range ev.Attendees {
		d.Attendees = append(d.Attendees, a.Email)
	}
	return d
}

func parseAPITime(t *apiEventTime, loc *time.Location) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed.In(loc)
		}
	}
	if t.Date != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", t.Date, loc); err == nil {
			return parsed
		}
	}
	return time.Time{}
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
		return fmt.Errorf("calendar API %s: %s", resp.Status, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
