// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ResetEmailData holds data for the password reset email.
type ResetEmailData struct {
	SiteName  string
	ResetLink string
	ExpiresIn string // e.g., "1 hour"
}

// BuildResetEmail creates a password reset email with both HTML and text bodies.
func BuildResetEmail(data ResetEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildResetText(data),
		HTMLBody: buildResetHTML(data),
	}
}

func buildResetText(data ResetEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Someone asked to reset the password for your %s account.\n\n", data.SiteName)
	buf.WriteString("Open this link to choose a new password:\n")
	buf.WriteString(data.ResetLink + "\n\n")
	fmt.Fprintf(&buf, "The link expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not ask for this, you can ignore this email.\n")
	return buf.String()
}

var resetTmpl = template.Must(template.New("reset").Parse(resetHTMLTemplate))

func buildResetHTML(data ResetEmailData) string {
	var buf bytes.Buffer
	_ = resetTmpl.Execute(&buf, data)
	return buf.String()
}

const resetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password reset</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; text-align: center;">
              <h1 style="margin: 0; font-size: 22px; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 16px 32px; font-size: 15px; color: #374151;">
              <p>Someone asked to reset the password for your account.</p>
              <p style="text-align: center; margin: 24px 0;">
                <a href="{{.ResetLink}}" style="display: inline-block; padding: 12px 28px; background-color: #0f766e; color: #ffffff; text-decoration: none; border-radius: 6px;">Choose a new password</a>
              </p>
              <p style="font-size: 13px; color: #6b7280;">The link expires in {{.ExpiresIn}}. If you did not ask for this, you can ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
