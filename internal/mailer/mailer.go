// Package mailer sends transactional email over SMTP. Delivery failures are
// the caller's problem to log; the surrounding database mutation is never
// rolled back because an email did not go out.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer struct {
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	FrontendURL string
}

func (m *Mailer) configured() bool {
	return m != nil && m.Host != "" && m.Username != "" && m.Password != ""
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if !m.configured() {
		return errors.New("mail transport not configured")
	}

	from := m.From
	if from == "" {
		from = m.Username
	}

	var msg strings.Builder
	msg.WriteString("From: McCulloch Jewellers <" + from + ">\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (m *Mailer) SendVerificationEmail(to, token, firstName string) error {
	verificationURL := m.FrontendURL + "/verify-email?token=" + token
	greeting := "Hello"
	if firstName != "" {
		greeting = "Hello " + firstName
	}

	body := fmt.Sprintf(`<html><body style="font-family:Georgia,serif;color:#1f2937;">
<h2>McCulloch Jewellers</h2>
<p>%s,</p>
<p>Thank you for creating an account. Please confirm your email address by clicking the link below.</p>
<p><a href="%s" style="color:#d97706;">Verify Email Address</a></p>
<p>This verification link will expire in 24 hours.</p>
<p>If the button does not work, copy this address into your browser:<br>%s</p>
</body></html>`, greeting, verificationURL, verificationURL)

	return m.send(to, "Verify Your Email - McCulloch Jewellers", body)
}

func (m *Mailer) SendWelcomeEmail(to, firstName string) error {
	greeting := "Welcome"
	if firstName != "" {
		greeting = "Welcome, " + firstName
	}

	body := fmt.Sprintf(`<html><body style="font-family:Georgia,serif;color:#1f2937;">
<h2>McCulloch Jewellers</h2>
<p>%s!</p>
<p>Your email address is confirmed. You can now browse our collections, save favorites, and check out faster.</p>
<p><a href="%s" style="color:#d97706;">Start browsing</a></p>
</body></html>`, greeting, m.FrontendURL)

	return m.send(to, "Welcome to McCulloch Jewellers", body)
}
