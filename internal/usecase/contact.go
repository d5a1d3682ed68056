package usecase

import (
	"context"
	"errors"

	"go-contact-relay/internal/domain"
	"go-contact-relay/pkg/email"
	"go-contact-relay/pkg/security"
	"go-contact-relay/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// ContactConfig holds the fixed addresses of the relay.
type ContactConfig struct {
	StaffAddress   string // receives every submission
	ServiceAddress string // sends the acknowledgment
}

type contactUsecase struct {
	validate *validator.Validate
	gate     domain.AttachmentGate
	mailer   domain.Mailer
	events   *security.DispatchLogger
	cfg      ContactConfig
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(validate *validator.Validate, gate domain.AttachmentGate, mailer domain.Mailer, events *security.DispatchLogger, cfg ContactConfig) domain.ContactUsecase {
	return &contactUsecase{
		validate: validate,
		gate:     gate,
		mailer:   mailer,
		events:   events,
		cfg:      cfg,
	}
}

// submission carries one request through the pipeline
type submission struct {
	form       *domain.FormSubmission
	upload     *security.Upload
	attachment *email.Attachment
	requestID  string
	result     domain.SubmissionResult
}

// step is one stage of the pipeline. reached is the state entered when run
// returns nil; any error ends the pipeline.
type step struct {
	reached domain.SubmissionState
	run     func(ctx context.Context, s *submission) error
}

func (uc *contactUsecase) pipeline() []step {
	return []step{
		{domain.StateValidated, uc.validateForm},
		{domain.StateAttachmentChecked, uc.checkAttachment},
		{domain.StateStaffNotified, uc.notifyStaff},
		{domain.StateAcknowledged, uc.acknowledge},
	}
}

// Submit runs the steps in order and stops at the first failure, so the
// acknowledgment is only attempted after the staff copy was accepted.
func (uc *contactUsecase) Submit(ctx context.Context, form *domain.FormSubmission, upload *security.Upload) (*domain.SubmissionResult, error) {
	s := &submission{
		form:      form,
		upload:    upload,
		requestID: domain.RequestIDFrom(ctx),
		result:    domain.SubmissionResult{State: domain.StateReceived},
	}

	// Once dispatch starts it runs to completion even if the client goes away
	ctx = context.WithoutCancel(ctx)

	for _, st := range uc.pipeline() {
		if err := st.run(ctx, s); err != nil {
			s.result.State = terminalState(err)
			return &s.result, err
		}
		s.result.State = st.reached
	}
	return &s.result, nil
}

func terminalState(err error) domain.SubmissionState {
	var transportErr *domain.MailTransportError
	if errors.As(err, &transportErr) {
		return domain.StateFailed
	}
	return domain.StateRejected
}

func (uc *contactUsecase) validateForm(ctx context.Context, s *submission) error {
	s.form.Normalize()
	if fields := validation.Check(uc.validate, s.form); len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Field)
		}
		uc.events.Log(ctx, security.DispatchEvent{
			Event:     security.EventSubmissionRejected,
			Submitter: s.form.Email,
			RequestID: s.requestID,
			Details:   map[string]interface{}{"fields": names},
		})
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (uc *contactUsecase) checkAttachment(ctx context.Context, s *submission) error {
	attachment, err := uc.gate.Check(ctx, s.upload)
	if err != nil {
		uc.events.Log(ctx, security.DispatchEvent{
			Event:     security.EventAttachmentRejected,
			Submitter: s.form.Email,
			RequestID: s.requestID,
			Reason:    err.Error(),
		})
		return &domain.AttachmentError{Err: err}
	}
	s.attachment = attachment
	s.result.HasAttachment = attachment != nil
	return nil
}

func (uc *contactUsecase) notifyStaff(ctx context.Context, s *submission) error {
	msg, err := email.BuildStaffNotification(email.ContactEmailData{
		Names:     s.form.Names,
		Lastnames: s.form.Lastnames,
		Email:     s.form.Email,
		Cellphone: s.form.Cellphone,
		Subject:   s.form.Subject,
		Message:   s.form.Message,
	}, uc.cfg.StaffAddress, s.attachment)
	if err == nil {
		s.result.StaffReceipt, err = uc.mailer.Send(ctx, msg)
	}
	if err != nil {
		uc.events.Log(ctx, security.DispatchEvent{
			Event:     security.EventStaffFailed,
			Submitter: s.form.Email,
			RequestID: s.requestID,
			Reason:    err.Error(),
		})
		return &domain.MailTransportError{Stage: domain.StageStaffNotification, Err: err}
	}

	uc.events.Log(ctx, security.DispatchEvent{
		Event:     security.EventStaffNotified,
		Submitter: s.form.Email,
		RequestID: s.requestID,
		Receipt:   s.result.StaffReceipt,
		Details:   map[string]interface{}{"attachment": s.attachment != nil},
	})
	return nil
}

func (uc *contactUsecase) acknowledge(ctx context.Context, s *submission) error {
	receipt, err := uc.mailer.Send(ctx, email.BuildAcknowledgment(uc.cfg.ServiceAddress, s.form.Email))
	if err != nil {
		// The staff copy already went out; the client still sees a plain failure
		uc.events.Log(ctx, security.DispatchEvent{
			Event:     security.EventAckFailed,
			Submitter: s.form.Email,
			RequestID: s.requestID,
			Reason:    err.Error(),
			Details:   map[string]interface{}{"staff_receipt": s.result.StaffReceipt},
		})
		return &domain.MailTransportError{Stage: domain.StageAcknowledgment, Err: err}
	}

	s.result.AckReceipt = receipt
	uc.events.Log(ctx, security.DispatchEvent{
		Event:     security.EventAcknowledged,
		Submitter: s.form.Email,
		RequestID: s.requestID,
		Receipt:   receipt,
	})
	return nil
}
