package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// AcknowledgmentSubject is the fixed subject of the mail sent back to the submitter.
const AcknowledgmentSubject = "Form Received Successfully"

// ContactEmailData holds the data for contact form emails
type ContactEmailData struct {
	Names     string
	Lastnames string
	Email     string
	Cellphone string
	Subject   string
	Message   string
}

// staffEmailTemplate is the HTML summary sent to the staff recipient
const staffEmailTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; color: #333; }
        .email-container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #fff; border-radius: 8px; box-shadow: 0 0 10px rgba(0, 0, 0, 0.1); }
        h2 { color: #007bff; }
        p { line-height: 1.6; }
        li { text-align: justify; }
        .highlight { background-color: #e6f7ff; padding: 10px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="email-container">
        <h2>New Contact Message!</h2>
        <p>Hello!</p>
        <p>You have received a new contact message with the following information:</p>
        <ul>
            <li><strong>Names:</strong> {{.Names}}</li>
            <li><strong>Last names:</strong> {{.Lastnames}}</li>
            <li><strong>Email:</strong> {{.Email}}</li>
            <li><strong>Cellphone:</strong> {{.Cellphone}}</li>
            <li><strong>Subject:</strong> {{.Subject}}</li>
            <li><strong>Message:</strong> {{.Message}}</li>
        </ul>
        {{if .HasAttachment}}
        <div class="highlight">
            <p>The sender's resume is attached to this email.</p>
        </div>
        {{end}}
        <p>Thank you!</p>
    </div>
</body>
</html>`

// acknowledgmentTemplate is sent verbatim to every submitter
const acknowledgmentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + AcknowledgmentSubject + `</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; color: #333; }
        .email-container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #fff; border-radius: 8px; box-shadow: 0 0 10px rgba(0, 0, 0, 0.1); }
        h2 { color: #007bff; }
        p { line-height: 1.6; }
        .highlight { background-color: #e6f7ff; padding: 10px; border-radius: 4px; }
        .thank-you { font-size: 18px; font-weight: bold; color: #007bff; }
    </style>
</head>
<body>
    <div class="email-container">
        <h2>Thank You for Contacting Us!</h2>
        <p>We have received your form and will get in touch with you soon.</p>
        <p class="thank-you">Thank you!</p>
        <div class="highlight">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>`

var staffTmpl = template.Must(template.New("staff").Parse(staffEmailTemplate))

// BuildStaffNotification builds the message sent to the staff recipient. The
// submitter is both the From and the Reply-To so staff can answer directly.
func BuildStaffNotification(data ContactEmailData, staffAddress string, attachment *Attachment) (*Message, error) {
	var body bytes.Buffer
	err := staffTmpl.Execute(&body, struct {
		ContactEmailData
		HasAttachment bool
	}{data, attachment != nil})
	if err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := &Message{
		From:     data.Email,
		ReplyTo:  data.Email,
		To:       []string{staffAddress},
		Subject:  data.Subject,
		TextBody: data.Message,
		HTMLBody: body.String(),
	}
	if attachment != nil {
		msg.Attachments = []Attachment{*attachment}
	}
	return msg, nil
}

// BuildAcknowledgment builds the fixed confirmation sent back to the submitter.
func BuildAcknowledgment(serviceAddress, submitterAddress string) *Message {
	return &Message{
		From:     serviceAddress,
		To:       []string{submitterAddress},
		Subject:  AcknowledgmentSubject,
		HTMLBody: acknowledgmentTemplate,
	}
}
