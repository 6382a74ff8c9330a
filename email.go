package oneblog

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SendEmail delivers password reset codes. Implementations should honour
// the context deadline.
type SendEmail interface {
	SendResetCode(ctx context.Context, to string, code string) error
}

// ResetCodeEmail is a rendered password reset message
type ResetCodeEmail struct {
	Subject string
	HTML    string
	Text    string
}

const ResetCodeSubject = "Password Reset OTP - Blog Application"

// RenderResetCodeEmail builds the subject and both bodies for a reset code
func RenderResetCodeEmail(code string, expiry time.Duration) ResetCodeEmail {
	if expiry <= 0 {
		expiry = DefaultOTCExpiry
	}
	minutes := int(expiry / time.Minute)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Password Reset Request</h2>
		<p>You requested to reset your password. Use the OTP below to continue:</p>
		<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">%s</p>
		<p><strong>This OTP will expire in %d minutes.</strong></p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>
	</div>
</body>
</html>`, code, minutes)
	text := fmt.Sprintf(`Password Reset Request

You requested to reset your password. Use the OTP below to continue:

%s

This OTP will expire in %d minutes.

If you did not request a password reset, you can safely ignore this email.
`, code, minutes)
	return ResetCodeEmail{Subject: ResetCodeSubject, HTML: html, Text: text}
}

// ConsoleEmailSender is a development implementation that logs emails to console
type ConsoleEmailSender struct {
	Expiry time.Duration
}

func (c *ConsoleEmailSender) SendResetCode(ctx context.Context, to string, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := RenderResetCodeEmail(code, c.Expiry)
	log.Printf("\n=== EMAIL: Password Reset ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: %s", msg.Subject)
	log.Printf("Body: %s", msg.Text)
	log.Printf("==============================\n")
	return nil
}
