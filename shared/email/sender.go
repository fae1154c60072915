package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"insight-stack/internal/models"
	"insight-stack/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendJobReport emails a per-video breakdown of an analysis job. Jobs that
// requested no analyses produce no email.
func (s *Sender) SendJobReport(summary *models.JobSummary) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}

	if summary.TotalRequested == 0 {
		return nil // Nothing analyzed, nothing to report
	}

	subject := fmt.Sprintf("Video Analysis Report - %d succeeded, %d failed (%s)",
		summary.Succeeded, summary.Failed, summary.SubmittedAt.Format("Jan 2, 2006"))

	body, err := s.generateEmailBody(summary)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; color: #222; }
  table { border-collapse: collapse; margin: 12px 0; }
  th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
  th { background: #f4f4f4; }
  .ok { color: #2e7d32; }
  .fail { color: #c62828; }
</style>
</head>
<body>
<h2>Video Analysis Report</h2>
<p>
  Job <code>{{.JobID}}</code> finished with state <b>{{.State}}</b>.<br>
  {{.Succeeded}} of {{.TotalRequested}} analyses succeeded, {{.Failed}} failed.
</p>
{{range $videoID, $outcomes := .PerVideo}}
<h3>{{$videoID}}</h3>
<table>
  <tr><th>Analysis</th><th>Status</th><th>Detail</th></tr>
  {{range $outcomes}}
  <tr>
    <td>{{.Kind}}</td>
    {{if .Succeeded}}
    <td class="ok">succeeded</td><td></td>
    {{else}}
    <td class="fail">failed{{if .Retryable}} (retryable){{end}}</td><td>{{.Reason}}</td>
    {{end}}
  </tr>
  {{end}}
</table>
{{end}}
</body>
</html>`

func (s *Sender) generateEmailBody(summary *models.JobSummary) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, summary); err != nil {
		return "", err
	}

	return buf.String(), nil
}
