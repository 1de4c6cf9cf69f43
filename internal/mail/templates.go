package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rossvale/modelfolio/internal/jobs"
)

// Every job type renders through its own template; there is no free-form
// "subject + html" job. The envelope (recipient, subject) is derived from the
// typed payload here so producers never hand-build email bodies.

const layoutHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9;">
    <div style="text-align: center; padding: 20px; background-color: #000000; color: #ffffff;">
      <h1>{{.Heading}}</h1>
    </div>
    <div style="padding: 20px; background-color: #ffffff; border-radius: 5px;">
      {{.Body}}
    </div>
    <div style="text-align: center; padding: 20px; font-size: 12px; color: #666666;">
      <p>This is an automated message, please do not reply to this email.</p>
    </div>
  </div>
</body>
</html>`

var layoutTmpl = template.Must(template.New("layout").Parse(layoutHTML))

var bodyTmpls = template.Must(template.New("bodies").Funcs(template.FuncMap{
	"fmtDate": fmtDate,
}).Parse(`
{{define "booking.confirmation"}}
<p>Hello {{.Name}},</p>
<p>Thank you for your {{.Type}} booking request for {{fmtDate .Date}}.</p>
<p>We have received it and will confirm availability shortly.</p>
{{end}}

{{define "booking.request_alert"}}
<p><strong>Client:</strong> {{.Name}}</p>
{{if .Phone}}<p><strong>Phone:</strong> {{.Phone}}</p>{{end}}
<p><strong>Type:</strong> {{.Type}}</p>
<p><strong>Date:</strong> {{fmtDate .Date}}</p>
{{if .Details}}<p><strong>Details:</strong> {{.Details}}</p>{{end}}
{{end}}

{{define "booking.status_change"}}
<p>Hello {{.Name}},</p>
<p>Your {{.Type}} booking for {{fmtDate .Date}} is now <strong>{{.Status}}</strong>.</p>
{{end}}

{{define "contact.alert"}}
<p><strong>From:</strong> {{.FromName}} ({{.FromEmail}})</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
{{end}}

{{define "auth.password_reset"}}
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>You are receiving this email because a password reset was requested for your account.</p>
<p>This link will expire in 10 minutes.</p>
<p style="text-align: center;">
  <a href="{{.ResetURL}}" style="display: inline-block; padding: 12px 24px; background-color: #000000; color: #ffffff; text-decoration: none; border-radius: 4px;">Reset Password</a>
</p>
<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>
{{end}}

{{define "email.delivery_failure_alert"}}
<p>An email job failed after exhausting its retries.</p>
<p><strong>Job ID:</strong> {{.FailedJobID}}</p>
<p><strong>Job type:</strong> {{.FailedJobType}}</p>
<p><strong>Recipient:</strong> {{.OriginalTo}}</p>
<p><strong>Subject:</strong> {{.OriginalSubject}}</p>
<p><strong>Attempts:</strong> {{.Attempts}}</p>
<p><strong>Last error:</strong> {{.LastError}}</p>
{{end}}

{{define "queue.health_alert"}}
<p>The email queue failure count crossed its alert threshold.</p>
<p><strong>Failed:</strong> {{.FailedCount}}</p>
<p><strong>Pending:</strong> {{.PendingCount}}</p>
<p><strong>Processing:</strong> {{.ProcessingCount}}</p>
{{end}}
`))

func fmtDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderMessage turns a decoded payload into a ready-to-send message.
func RenderMessage(t jobs.JobType, payload any) (Message, error) {
	var (
		to      string
		subject string
		heading string
	)

	switch p := payload.(type) {
	case jobs.BookingConfirmationPayload:
		to = p.Email
		subject = "Booking Request Received"
		heading = "Booking Request Received"
	case jobs.BookingRequestAlertPayload:
		to = p.Email
		subject = "New Booking Request"
		heading = "New Booking Request"
	case jobs.BookingStatusChangePayload:
		to = p.Email
		subject = "Booking " + titleCase(p.Status)
		heading = "Booking " + titleCase(p.Status)
	case jobs.ContactAlertPayload:
		to = p.Email
		subject = "New Contact: " + p.Subject
		heading = "New Contact Form Submission"
	case jobs.PasswordResetPayload:
		to = p.Email
		subject = "Password Reset Request"
		heading = "Password Reset Request"
	case jobs.DeliveryFailureAlertPayload:
		to = p.Email
		subject = "Email Queue Job Failed"
		heading = "Email Queue Job Failed"
	case jobs.QueueHealthAlertPayload:
		to = p.Email
		subject = "Email Queue Alert: High Failure Rate"
		heading = "Email Queue Alert"
	default:
		return Message{}, fmt.Errorf("%w: %T", jobs.ErrPayloadTypeMismatch, payload)
	}

	body, err := renderBody(string(t), payload)
	if err != nil {
		return Message{}, err
	}

	var buf bytes.Buffer
	err = layoutTmpl.Execute(&buf, struct {
		Heading string
		Body    template.HTML
	}{
		Heading: heading,
		Body:    template.HTML(body),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render layout: %w", err)
	}

	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

func renderBody(name string, payload any) (string, error) {
	tmpl := bodyTmpls.Lookup(name)

	if tmpl == nil {
		return "", fmt.Errorf("no template for job type %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
