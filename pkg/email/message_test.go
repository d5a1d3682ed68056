package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() ContactEmailData {
	return ContactEmailData{
		Names:     "Ana",
		Lastnames: "Ruiz",
		Email:     "ana@x.com",
		Cellphone: "123",
		Subject:   "Hi",
		Message:   "Hello",
	}
}

func TestBuildStaffNotificationWithoutAttachment(t *testing.T) {
	msg, err := BuildStaffNotification(sampleData(), "staff@example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", msg.From)
	assert.Equal(t, "ana@x.com", msg.ReplyTo)
	assert.Equal(t, []string{"staff@example.com"}, msg.To)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "Hello", msg.TextBody)
	assert.Empty(t, msg.Attachments)
	assert.Contains(t, msg.HTMLBody, "Ruiz")
	assert.NotContains(t, msg.HTMLBody, "resume is attached")
}

func TestBuildStaffNotificationEscapesFields(t *testing.T) {
	data := sampleData()
	data.Message = "<script>alert(1)</script>"

	msg, err := BuildStaffNotification(data, "staff@example.com", nil)
	require.NoError(t, err)

	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.Contains(t, msg.HTMLBody, "&lt;script&gt;")
}

func TestBuildAcknowledgment(t *testing.T) {
	msg := BuildAcknowledgment("service@example.com", "ana@x.com")

	assert.Equal(t, "service@example.com", msg.From)
	assert.Equal(t, []string{"ana@x.com"}, msg.To)
	assert.Equal(t, AcknowledgmentSubject, msg.Subject)
	assert.Empty(t, msg.Attachments)
	assert.Empty(t, msg.TextBody)
	assert.Contains(t, msg.HTMLBody, "We have received your form")
}

func TestMessageBytesWithAttachment(t *testing.T) {
	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0xAB}, 300)...)
	msg, err := BuildStaffNotification(sampleData(), "staff@example.com", &Attachment{
		Filename:    "cv.pdf",
		ContentType: "application/pdf",
		Content:     pdf,
	})
	require.NoError(t, err)
	msg.ID = "<id@x.com>"
	msg.Date = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "<ana@x.com>", parsed.Header.Get("From"))
	assert.Equal(t, "<staff@example.com>", parsed.Header.Get("To"))
	assert.Equal(t, "Hi", parsed.Header.Get("Subject"))
	assert.Equal(t, "<id@x.com>", parsed.Header.Get("Message-ID"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	body, err := mr.NextPart()
	require.NoError(t, err)
	bodyType, _, err := mime.ParseMediaType(body.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", bodyType)

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", att.FileName())
	encoded, err := io.ReadAll(att)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, pdf, decoded)

	for _, line := range strings.Split(string(encoded), "\r\n") {
		assert.LessOrEqual(t, len(line), maxLineLength)
	}

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestMessageBytesHTMLOnly(t *testing.T) {
	raw, err := BuildAcknowledgment("service@example.com", "ana@x.com").Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", parsed.Header.Get("Content-Type"))
	assert.Equal(t, "quoted-printable", parsed.Header.Get("Content-Transfer-Encoding"))
}

func TestMessageBytesFoldsHeaderInjection(t *testing.T) {
	msg := &Message{
		From:     "ana@x.com",
		To:       []string{"staff@example.com"},
		Subject:  "Hi\r\nBcc: victim@example.com",
		TextBody: "Hello",
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, parsed.Header.Get("Bcc"))
}

func TestMessageBytesRejectsBadAddresses(t *testing.T) {
	_, err := (&Message{From: "not an address", To: []string{"a@b.com"}}).Bytes()
	assert.Error(t, err)

	_, err = (&Message{From: "a@b.com"}).Bytes()
	assert.Error(t, err)
}

func TestNonASCIISubjectIsEncoded(t *testing.T) {
	msg := &Message{From: "a@b.com", To: []string{"c@d.com"}, Subject: "Señal", TextBody: "x"}
	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	decoded, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Señal", decoded)
}
