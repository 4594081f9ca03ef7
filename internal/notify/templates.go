package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"opsboard/internal/models"
)

// Email is a rendered message ready for a delivery channel.
type Email struct {
	Subject  string
	HTMLBody string
}

const baseLayout = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2 style="margin-bottom: 4px;">{{.Heading}}</h2>
  <p>{{.Body}}</p>
  {{if .TaskTitle}}<table style="border-collapse: collapse;">
    <tr><td style="padding: 2px 8px 2px 0;"><b>Task</b></td><td>{{.TaskTitle}}</td></tr>
    {{if .DueAt}}<tr><td style="padding: 2px 8px 2px 0;"><b>Due</b></td><td>{{.DueAt}}</td></tr>{{end}}
    {{if .Priority}}<tr><td style="padding: 2px 8px 2px 0;"><b>Priority</b></td><td>{{.Priority}}</td></tr>{{end}}
  </table>{{end}}
  <p style="color: #888; font-size: 12px;">This message was sent by the operations dashboard.</p>
</body>
</html>`

var emailTemplate = template.Must(template.New("email").Parse(baseLayout))

type emailData struct {
	Heading   string
	Body      string
	TaskTitle string
	DueAt     string
	Priority  string
}

// Render builds the HTML email for a notification. Task and extension
// context enrich the message when available; otherwise the stored title
// and message are used as-is.
func Render(n models.Notification, task *models.Task, req *models.ExtensionRequest) (Email, error) {
	data := emailData{Heading: n.Title, Body: n.Message}
	if task != nil {
		data.TaskTitle = task.Title
		data.DueAt = formatDue(task.DueAt)
		switch n.Type {
		case models.NotifyTaskAssigned, models.NotifyTaskOverdue:
			data.Priority = string(task.Priority)
		}
	}
	if req != nil && n.Type == models.NotifyExtensionRequested {
		data.Body = fmt.Sprintf("%s Requested due date: %s. Reason: %s",
			n.Message, formatDue(&req.RequestedDueAt), req.Reason)
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render email template: %w", err)
	}
	return Email{Subject: n.Title, HTMLBody: buf.String()}, nil
}

// The message composers below produce the title and body stored on a
// notification record.

func AssignmentMessage(task *models.Task) (string, string) {
	return fmt.Sprintf("New task assigned: %s", task.Title),
		"A new task has been assigned to you."
}

func BulkAssignmentMessage(count int) (string, string) {
	return fmt.Sprintf("%d new tasks assigned", count),
		fmt.Sprintf("%d new tasks have been assigned to you.", count)
}

func OverdueMessage(task *models.Task) (string, string) {
	return fmt.Sprintf("Task overdue: %s", task.Title),
		fmt.Sprintf("The task %q has passed its due date.", task.Title)
}

func ExtensionRequestedMessage(task *models.Task) (string, string) {
	return fmt.Sprintf("Extension requested: %s", task.Title),
		fmt.Sprintf("A deadline extension for %q needs a decision.", task.Title)
}

func ExtensionDecisionMessage(task *models.Task, approved bool, note string) (string, string) {
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	body := fmt.Sprintf("Your extension request for %q has been %s.", task.Title, verdict)
	if note != "" {
		body += " Note: " + note
	}
	return fmt.Sprintf("Extension %s: %s", verdict, task.Title), body
}

func formatDue(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
