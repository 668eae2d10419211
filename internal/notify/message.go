package notify

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
)

// ReminderSubject is the subject line of every reminder email.
const ReminderSubject = "Task reminder"

// ReminderText returns the plain text body for a task reminder.
func ReminderText(task *domain.Task) string {
	return fmt.Sprintf("Don't forget about your task: %s", task.Title)
}

func reminderHTML(task *domain.Task) string {
	return fmt.Sprintf("<p>Don't forget about your task: <strong>%s</strong></p>", html.EscapeString(task.Title))
}

// buildReminderMessage renders an RFC 5322 message with a plain text part and
// an HTML alternative.
func buildReminderMessage(from, to string, task *domain.Task, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", ReminderText(task)},
		{"text/html; charset=UTF-8", reminderHTML(task)},
	}
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", p.contentType)
		header.Set("Content-Transfer-Encoding", "8bit")
		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create message part: %w", err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to write message part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", ReminderSubject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}
