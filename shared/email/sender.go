package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"pulse-stack/internal/models"
	"pulse-stack/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendReport mails a digest of one collection run: what was searched, how the
// pipeline fared, and the sentiment verdict per surviving video.
func (s *Sender) SendReport(report *models.RunReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Videos) == 0 {
		return nil // Nothing collected, nothing to report
	}

	subject := fmt.Sprintf("Video Pulse: %d videos collected for %q (%s)",
		len(report.Videos), report.Topic, report.Date.Format("Jan 2, 2006"))

	body, err := generateReportBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.sendViaSMTP(subject, body)
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

const reportTemplate = `<html>
<body>
<h2>Video Pulse run — {{.Topic}}</h2>
<p>{{.Metrics}}</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Platform</th><th>Channel</th><th>Video</th><th>Likes</th><th>Subscribers</th><th>Sentiment</th></tr>
{{range .Videos}}
<tr>
<td>{{.Platform}}</td>
<td>{{.Channel}}</td>
<td><a href="{{.URL}}">{{if .Title}}{{.Title}}{{else}}{{.VideoID}}{{end}}</a></td>
<td>{{.LikesOrZero}}</td>
<td>{{.SubscribersOrZero}}</td>
<td>{{if .Sentiment}}{{.Sentiment.Choice}}{{else}}n/a{{end}}</td>
</tr>
{{end}}
</table>
</body>
</html>`

func generateReportBody(report *models.RunReport) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
