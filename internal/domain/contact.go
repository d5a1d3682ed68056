package domain

import (
	"context"
	"fmt"
	"strings"

	"go-contact-relay/pkg/apperror"
	"go-contact-relay/pkg/email"
	"go-contact-relay/pkg/security"
)

// FormSubmission is one contact form post. It lives for a single request.
type FormSubmission struct {
	Names     string `form:"names" json:"names" validate:"required,max=100,valid_name"`
	Lastnames string `form:"lastnames" json:"lastnames" validate:"required,max=100,valid_name"`
	Email     string `form:"email" json:"email" validate:"required,max=254,email,mail_address"`
	Cellphone string `form:"cellphone" json:"cellphone" validate:"required,max=30,valid_phone"`
	Subject   string `form:"subject" json:"subject" validate:"required,max=200,single_line"`
	Message   string `form:"message" json:"message" validate:"required,max=5000"`
}

// Normalize trims surrounding whitespace from every field.
func (s *FormSubmission) Normalize() {
	s.Names = strings.TrimSpace(s.Names)
	s.Lastnames = strings.TrimSpace(s.Lastnames)
	s.Email = strings.TrimSpace(s.Email)
	s.Cellphone = strings.TrimSpace(s.Cellphone)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
}

// SubmissionState tracks how far a submission got through the pipeline.
type SubmissionState string

const (
	StateReceived          SubmissionState = "received"
	StateValidated         SubmissionState = "validated"
	StateAttachmentChecked SubmissionState = "attachment_checked"
	StateStaffNotified     SubmissionState = "staff_notified"
	StateAcknowledged      SubmissionState = "acknowledged"
	StateResponded         SubmissionState = "responded"
	StateRejected          SubmissionState = "rejected"
	StateFailed            SubmissionState = "failed"
)

// SubmissionResult is what the pipeline produced for one submission.
type SubmissionResult struct {
	State        SubmissionState
	StaffReceipt string
	AckReceipt   string
	// HasAttachment reports whether the staff copy carried the PDF
	HasAttachment bool
}

// MailStage names one of the two sends.
type MailStage string

const (
	StageStaffNotification MailStage = "staff_notification"
	StageAcknowledgment    MailStage = "acknowledgment"
)

// ValidationError carries field level failures. Client correctable.
type ValidationError struct {
	Fields []apperror.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

// AttachmentError wraps a rejection from the attachment gate. Client correctable.
type AttachmentError struct {
	Err error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment rejected: %v", e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }

// MailTransportError is a failed send. Stage tells whether the staff copy landed.
type MailTransportError struct {
	Stage MailStage
	Err   error
}

func (e *MailTransportError) Error() string {
	return fmt.Sprintf("%s send failed: %v", e.Stage, e.Err)
}

func (e *MailTransportError) Unwrap() error { return e.Err }

// Mailer sends a fully formed message and returns the transport receipt.
type Mailer interface {
	Send(ctx context.Context, msg *email.Message) (string, error)
}

// AttachmentGate admits at most one PDF and returns it in memory.
type AttachmentGate interface {
	Check(ctx context.Context, upload *security.Upload) (*email.Attachment, error)
}

// ContactUsecase defines the contact form pipeline
type ContactUsecase interface {
	// Submit validates the submission, gates the attachment, notifies staff
	// and acknowledges the sender, in that order.
	Submit(ctx context.Context, sub *FormSubmission, upload *security.Upload) (*SubmissionResult, error)
}
