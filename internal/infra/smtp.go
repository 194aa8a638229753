package infra

import (
	"fmt"
	"net/smtp"

	"schoolfood/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends notification e-mails and purchase slips over SMTP.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host is configured. Without one, mail is
// skipped and notifications are only stored.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

func (m *Mailer) SendNotification(to, title, message string) error {
	return m.send(to, "[School cafeteria] "+title, message, "")
}

// SendPurchaseSlip mails the PDF slip of an approved purchase request.
func (m *Mailer) SendPurchaseSlip(to, subject, body, pdfPath string) error {
	return m.send(to, subject, body, pdfPath)
}

func (m *Mailer) send(to, subject, body, attachment string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachment != "" {
		if _, err := e.AttachFile(attachment); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
