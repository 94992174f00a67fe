package email

import "fmt"

// ConfirmationMessage builds the email sent after registration. The link
// carries the one-time confirmation token.
func ConfirmationMessage(to, name, publicURL, token string) Message {
	link := fmt.Sprintf("%s/confirm?token=%s", publicURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to pressrank. Confirm your email address to activate your account:</p>
<p><a href="%s">%s</a></p>
<p>If you did not register, ignore this message.</p>`, name, link, link)

	return Message{
		To:      to,
		Subject: "Confirm your email address",
		Body:    body,
	}
}

// PasswordResetMessage builds the email sent for a password-reset request.
func PasswordResetMessage(to, name, publicURL, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", publicURL, token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>A password reset was requested for your account. The link below is valid for a limited time:</p>
<p><a href="%s">%s</a></p>
<p>If you did not request a reset, ignore this message; your password is unchanged.</p>`, name, link, link)

	return Message{
		To:      to,
		Subject: "Reset your password",
		Body:    body,
	}
}
