package mailer

// TemplateOTP renders the one-time code email.
const TemplateOTP = "otp"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or raw Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// NewOTPJob builds the delivery job for an issued one-time code.
func NewOTPJob(to, code, appName string, validMinutes int) EmailJob {
	return EmailJob{
		To:       to,
		Template: TemplateOTP,
		Data: map[string]any{
			"Code":         code,
			"AppName":      appName,
			"ValidMinutes": validMinutes,
		},
	}
}
