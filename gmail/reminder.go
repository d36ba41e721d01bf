package gmail

import (
	"context"
	"fmt"
	"time"
)

// SendMeetingReminder emails each attendee a short reminder for an
// upcoming event.
func (s *Service) SendMeetingReminder(ctx context.Context, attendees []string, title string, start time.Time, link string) error {
	subject, body := reminderMessage(title, start, link)
	for _, to := range attendees {
		if _, err := s.Send(ctx, to, subject, body); err != nil {
			return fmt.Errorf("remind %s: %w", to, err)
		}
	}
	return nil
}

func reminderMessage(title string, start time.Time, link string) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s", title)
	body = fmt.Sprintf(
		"Hello,\n\nThis is a reminder for the upcoming event:\n\n%s\n%s\n",
		title, start.Format("Monday, January 2, 2006 at 3:04 PM"),
	)
	if link != "" {
		body += fmt.Sprintf("\nEvent link: %s\n", link)
	}
	body += "\nSee you there!\n"
	return subject, body
}
