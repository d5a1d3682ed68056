package v1

import (
	"errors"
	"mime/multipart"
	"net/http"

	"go-contact-relay/internal/delivery/http/middleware"
	"go-contact-relay/internal/domain"
	"go-contact-relay/pkg/apperror"
	"go-contact-relay/pkg/logger"
	"go-contact-relay/pkg/security"

	"github.com/gin-gonic/gin"
)

// attachmentField is the only multipart field read as a file
const attachmentField = "file"

// room for the text fields and multipart framing on top of the attachment
const formOverheadBytes = 1 << 20

type ContactHandler struct {
	contactUC       domain.ContactUsecase
	confirmationURL string
	maxBodyBytes    int64
}

// NewContactHandler registers the form submission route
func NewContactHandler(r gin.IRoutes, contactUC domain.ContactUsecase, confirmationURL string, maxAttachmentBytes int64) {
	handler := &ContactHandler{
		contactUC:       contactUC,
		confirmationURL: confirmationURL,
		maxBodyBytes:    maxAttachmentBytes + formOverheadBytes,
	}

	r.POST("/form-send", handler.SubmitForm)
}

// SubmitForm godoc
// @Summary      Submit Contact Form
// @Description  Emails the submission (and an optional PDF up to 5 MB) to staff, then sends an acknowledgment to the submitter.
// @Tags         contact
// @Accept       multipart/form-data
// @Produce      json
// @Param        names      formData  string  true   "Names"
// @Param        lastnames  formData  string  true   "Last names"
// @Param        email      formData  string  true   "Email"
// @Param        cellphone  formData  string  true   "Cellphone"
// @Param        subject    formData  string  true   "Subject"
// @Param        message    formData  string  true   "Message"
// @Param        file       formData  file    false  "PDF attachment"
// @Success      302
// @Failure      400  {object}  response.ErrorsResponse
// @Failure      500  {string}  string
// @Router       /form-send [post]
func (h *ContactHandler) SubmitForm(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var form domain.FormSubmission
	if err := c.ShouldBind(&form); err != nil {
		c.Error(bindError(err))
		return
	}

	upload, closeUpload, err := attachmentFrom(c.Request.MultipartForm)
	if err != nil {
		c.Error(apperror.New(http.StatusBadRequest, "Failed to read attachment", err))
		return
	}
	defer closeUpload()

	result, err := h.contactUC.Submit(c.Request.Context(), &form, upload)
	if err != nil {
		c.Error(submitError(err))
		return
	}

	result.State = domain.StateResponded
	logger.Log.Info("Form relayed",
		"request_id", c.GetString("RequestID"),
		"state", result.State,
		"attachment", result.HasAttachment,
		"staff_receipt", result.StaffReceipt,
		"ack_receipt", result.AckReceipt,
	)
	c.Redirect(http.StatusFound, h.confirmationURL)
}

// attachmentFrom opens the first file under attachmentField. Further files
// are counted so the gate can reject them.
func attachmentFrom(form *multipart.Form) (*security.Upload, func(), error) {
	noop := func() {}
	if form == nil || len(form.File[attachmentField]) == 0 {
		return nil, noop, nil
	}

	files := form.File[attachmentField]
	header := files[0]
	f, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	return &security.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      f,
		Extra:       len(files) - 1,
	}, func() { _ = f.Close() }, nil
}

func bindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.Invalid([]apperror.FieldError{{
			Field:   attachmentField,
			Message: security.ErrAttachmentTooLarge.Error(),
		}}, err)
	}
	return apperror.New(http.StatusBadRequest, "Malformed form body", err)
}

// submitError maps pipeline failures to responses. Both transport stages
// produce the same 500 body.
func submitError(err error) *apperror.AppError {
	var validationErr *domain.ValidationError
	var attachmentErr *domain.AttachmentError

	switch {
	case errors.As(err, &validationErr):
		return apperror.Invalid(validationErr.Fields, err)
	case errors.As(err, &attachmentErr):
		return apperror.Invalid([]apperror.FieldError{{
			Field:   attachmentField,
			Message: attachmentErr.Err.Error(),
		}}, err)
	default:
		return apperror.InternalText(middleware.GenericFailureMessage, err)
	}
}
