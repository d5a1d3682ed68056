package email

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// Message is a fully formed email. Built per request, never stored.
type Message struct {
	ID          string // Message-ID header, assigned by the sender when empty
	From        string
	ReplyTo     string
	To          []string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Date        time.Time
}

// Attachment is an in-memory file carried by a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// base64 bodies are folded at the RFC 2045 line length
const maxLineLength = 76

// Bytes renders the message as RFC 5322 text with CRLF line endings.
func (m *Message) Bytes() ([]byte, error) {
	if len(m.To) == 0 {
		return nil, errors.New("message has no recipients")
	}
	from, err := formatAddress(m.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	to := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		formatted, err := formatAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient address: %w", err)
		}
		to = append(to, formatted)
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", strings.Join(to, ", "))
	if m.ReplyTo != "" {
		replyTo, err := formatAddress(m.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
		writeHeader(&buf, "Reply-To", replyTo)
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", oneLine(m.Subject)))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	if m.ID != "" {
		writeHeader(&buf, "Message-ID", m.ID)
	}
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(m.Attachments) == 0 {
		if err := m.writeBody(&buf, nil); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", "multipart/mixed; boundary=\""+mixed.Boundary()+"\"")
	buf.WriteString("\r\n")

	if err := m.writeBody(&buf, mixed); err != nil {
		return nil, err
	}
	for _, att := range m.Attachments {
		if err := writeAttachment(mixed, att); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBody emits the text and/or HTML body. With a parent writer the body is
// a part of it, otherwise its headers go straight after the message headers.
func (m *Message) writeBody(buf *bytes.Buffer, parent *multipart.Writer) error {
	switch {
	case m.TextBody != "" && m.HTMLBody != "":
		var out io.Writer = buf
		boundary := multipart.NewWriter(io.Discard).Boundary()
		contentType := mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": boundary})
		if parent != nil {
			part, err := parent.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
			if err != nil {
				return err
			}
			out = part
		} else {
			writeHeader(buf, "Content-Type", contentType)
			buf.WriteString("\r\n")
		}
		alt := multipart.NewWriter(out)
		if err := alt.SetBoundary(boundary); err != nil {
			return err
		}
		if err := writeTextPart(alt, "text/plain; charset=utf-8", m.TextBody); err != nil {
			return err
		}
		if err := writeTextPart(alt, "text/html; charset=utf-8", m.HTMLBody); err != nil {
			return err
		}
		return alt.Close()
	case m.HTMLBody != "":
		return writeSingle(buf, parent, "text/html; charset=utf-8", m.HTMLBody)
	default:
		return writeSingle(buf, parent, "text/plain; charset=utf-8", m.TextBody)
	}
}

func writeSingle(buf *bytes.Buffer, parent *multipart.Writer, contentType, body string) error {
	if parent != nil {
		return writeTextPart(parent, contentType, body)
	}
	writeHeader(buf, "Content-Type", contentType)
	writeHeader(buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")
	return writeQuotedPrintable(buf, body)
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	return writeQuotedPrintable(part, body)
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := io.WriteString(qp, body); err != nil {
		return err
	}
	return qp.Close()
}

func writeAttachment(w *multipart.Writer, att Attachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := mime.QEncoding.Encode("utf-8", oneLine(att.Filename))
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": att.Filename})},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {"attachment; filename=\"" + strings.ReplaceAll(filename, `"`, "") + "\""},
	})
	if err != nil {
		return err
	}
	lw := &lineWriter{w: part}
	enc := base64.NewEncoder(base64.StdEncoding, lw)
	if _, err := enc.Write(att.Content); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = io.WriteString(part, "\r\n")
	return err
}

// lineWriter inserts CRLF every maxLineLength bytes.
type lineWriter struct {
	w   io.Writer
	col int
}

func (l *lineWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := maxLineLength - l.col
		if n > len(p) {
			n = len(p)
		}
		if _, err := l.w.Write(p[:n]); err != nil {
			return written, err
		}
		written += n
		l.col += n
		p = p[n:]
		if l.col == maxLineLength {
			if _, err := io.WriteString(l.w, "\r\n"); err != nil {
				return written, err
			}
			l.col = 0
		}
	}
	return written, nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func formatAddress(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(s)), " ")
}
