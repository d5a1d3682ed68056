package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go-contact-relay/internal/domain"
	"go-contact-relay/internal/usecase"
	"go-contact-relay/pkg/email"
	"go-contact-relay/pkg/security"
	"go-contact-relay/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	staffAddress   = "staff@example.com"
	serviceAddress = "service@example.com"
)

// MockMailer records every send in order
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg *email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func isStaffCopy(msg *email.Message) bool {
	return len(msg.To) == 1 && msg.To[0] == staffAddress
}

func isAcknowledgment(msg *email.Message) bool {
	return msg.Subject == email.AcknowledgmentSubject && msg.From == serviceAddress
}

func newUsecase(mailer domain.Mailer) domain.ContactUsecase {
	gate := security.NewAttachmentGate(security.GateConfig{MaxBytes: 5 * 1024 * 1024})
	events := security.NewDispatchLoggerWith(zap.NewNop(), "test")
	return usecase.NewContactUsecase(validation.New(), gate, mailer, events, usecase.ContactConfig{
		StaffAddress:   staffAddress,
		ServiceAddress: serviceAddress,
	})
}

func anaSubmission() *domain.FormSubmission {
	return &domain.FormSubmission{
		Names:     "Ana",
		Lastnames: "Ruiz",
		Email:     "ana@x.com",
		Cellphone: "123",
		Subject:   "Hi",
		Message:   "Hello",
	}
}

func pdfUpload(size int) *security.Upload {
	data := bytes.Repeat([]byte("0"), size)
	copy(data, "%PDF-1.4\n")
	return &security.Upload{
		Filename:    "cv.pdf",
		ContentType: "application/pdf",
		Size:        int64(size),
		Reader:      bytes.NewReader(data),
	}
}

func TestSubmitSendsStaffThenAcknowledgment(t *testing.T) {
	mailer := new(MockMailer)
	var order []string

	mailer.On("Send", mock.Anything, mock.MatchedBy(isStaffCopy)).Return("<staff@id>", nil).Run(func(args mock.Arguments) {
		msg := args.Get(1).(*email.Message)
		assert.Equal(t, "ana@x.com", msg.From)
		assert.Equal(t, "Hi", msg.Subject)
		assert.Equal(t, "Hello", msg.TextBody)
		assert.Empty(t, msg.Attachments)
		order = append(order, "staff")
	}).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(isAcknowledgment)).Return("<ack@id>", nil).Run(func(args mock.Arguments) {
		msg := args.Get(1).(*email.Message)
		assert.Equal(t, []string{"ana@x.com"}, msg.To)
		assert.Empty(t, msg.Attachments)
		order = append(order, "ack")
	}).Once()

	result, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"staff", "ack"}, order)
	assert.Equal(t, domain.StateAcknowledged, result.State)
	assert.Equal(t, "<staff@id>", result.StaffReceipt)
	assert.Equal(t, "<ack@id>", result.AckReceipt)
	assert.False(t, result.HasAttachment)
	mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSubmitAttachesPDFToStaffCopyOnly(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(isStaffCopy)).Return("<staff@id>", nil).Run(func(args mock.Arguments) {
		msg := args.Get(1).(*email.Message)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "cv.pdf", msg.Attachments[0].Filename)
		assert.Len(t, msg.Attachments[0].Content, 2048)
	}).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(isAcknowledgment)).Return("<ack@id>", nil).Run(func(args mock.Arguments) {
		assert.Empty(t, args.Get(1).(*email.Message).Attachments)
	}).Once()

	result, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), pdfUpload(2048))
	require.NoError(t, err)
	assert.True(t, result.HasAttachment)
	mailer.AssertExpectations(t)
}

func TestSubmitRejectsMissingFieldsBeforeSending(t *testing.T) {
	mailer := new(MockMailer)
	sub := anaSubmission()
	sub.Lastnames = "   "

	result, err := newUsecase(mailer).Submit(context.Background(), sub, nil)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "lastnames", validationErr.Fields[0].Field)
	assert.Equal(t, domain.StateRejected, result.State)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitRejectsNonPDFBeforeSending(t *testing.T) {
	mailer := new(MockMailer)
	upload := pdfUpload(64)
	upload.ContentType = "image/png"

	result, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), upload)

	var attachmentErr *domain.AttachmentError
	require.True(t, errors.As(err, &attachmentErr))
	assert.ErrorIs(t, err, security.ErrUnsupportedAttachment)
	assert.Equal(t, domain.StateRejected, result.State)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitRejectsOversizedPDFBeforeSending(t *testing.T) {
	mailer := new(MockMailer)

	_, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), pdfUpload(5*1024*1024+1))

	assert.ErrorIs(t, err, security.ErrAttachmentTooLarge)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitStaffFailureSkipsAcknowledgment(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(isStaffCopy)).Return("", errors.New("connection refused")).Once()

	result, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), nil)

	var transportErr *domain.MailTransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, domain.StageStaffNotification, transportErr.Stage)
	assert.Equal(t, domain.StateFailed, result.State)
	mailer.AssertNumberOfCalls(t, "Send", 1)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.MatchedBy(isAcknowledgment))
}

func TestSubmitAcknowledgmentFailureAfterStaffCopy(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(isStaffCopy)).Return("<staff@id>", nil).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(isAcknowledgment)).Return("", errors.New("mailbox full")).Once()

	result, err := newUsecase(mailer).Submit(context.Background(), anaSubmission(), nil)

	var transportErr *domain.MailTransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, domain.StageAcknowledgment, transportErr.Stage)
	assert.Equal(t, domain.StateFailed, result.State)
	assert.Equal(t, "<staff@id>", result.StaffReceipt)
	assert.Empty(t, result.AckReceipt)
	mailer.AssertExpectations(t)
}

func TestSubmitIgnoresClientCancellationOnceDispatching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(isStaffCopy)).Return("<staff@id>", nil).Run(func(args mock.Arguments) {
		cancel()
	}).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(isAcknowledgment)).Return("<ack@id>", nil).Run(func(args mock.Arguments) {
		assert.NoError(t, args.Get(0).(context.Context).Err())
	}).Once()

	_, err := newUsecase(mailer).Submit(ctx, anaSubmission(), nil)
	require.NoError(t, err)
	mailer.AssertExpectations(t)
}
