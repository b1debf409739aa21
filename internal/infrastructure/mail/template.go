package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

const otpSubject = "Your OTP Code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>OTP Code</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
  <table role="presentation" style="width: 100%; border-collapse: collapse;">
    <tr>
      <td style="padding: 20px 0; text-align: center;">
        <table role="presentation" style="width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 40px 30px; text-align: center;">
              <h1 style="color: #333333; margin: 0 0 20px 0; font-size: 24px;">Your OTP Code</h1>
              <p style="color: #666666; font-size: 16px; margin: 0 0 30px 0;">{{.Lead}}</p>
              <div style="background-color: #f8f9fa; border: 2px dashed #dee2e6; border-radius: 8px; padding: 20px; margin: 30px 0;">
                <p style="font-size: 32px; font-weight: bold; color: #007bff; letter-spacing: 8px; margin: 0; font-family: 'Courier New', monospace;">{{.Code}}</p>
              </div>
              <p style="color: #666666; font-size: 14px; margin: 20px 0 0 0;">This code will expire in <strong>{{.Minutes}} minutes</strong>.</p>
              <p style="color: #999999; font-size: 12px; margin: 30px 0 0 0;">If you didn't request this code, please ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

type otpView struct {
	Lead    string
	Code    string
	Minutes int
}

func renderOTP(code string, purpose domain.OTPPurpose, expiresIn time.Duration) (string, error) {
	view := otpView{
		Lead:    leadFor(purpose),
		Code:    code,
		Minutes: expiryMinutes(expiresIn),
	}

	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}

func leadFor(purpose domain.OTPPurpose) string {
	switch purpose {
	case domain.PurposeEmailVerification:
		return "Use the following code to verify your email address:"
	case domain.PurposePasswordReset:
		return "Use the following code to reset your password:"
	default:
		return "Use the following code to complete your request:"
	}
}

// expiryMinutes rounds d up to whole minutes, never below one.
func expiryMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
