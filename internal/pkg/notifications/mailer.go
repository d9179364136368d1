package notifications

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/internal/pkg/env"
)

// Mailer sends donor-facing notification emails via SMTP.
type Mailer struct{}

func NewMailer() *Mailer {
	return &Mailer{}
}

// SendReceipt emails a donation receipt for a recorded transaction.
func (m *Mailer) SendReceipt(tx *models.Transaction) error {
	if tx == nil || strings.TrimSpace(tx.Email) == "" {
		return nil
	}

	subject := fmt.Sprintf("Thank you for your %s", tx.PaymentType)
	body := fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>We received your payment of %s %s (reference %s).</p>"+
			"<p>Thank you for your support!</p>",
		donorSalutation(tx.DonorName),
		tx.Amount.StringFixed(2),
		strings.ToUpper(tx.Currency),
		tx.Reference,
	)
	return SendMail(tx.Email, subject, body)
}

func donorSalutation(name string) string {
	if strings.TrimSpace(name) == "" {
		return "supporter"
	}
	return strings.TrimSpace(name)
}

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}
