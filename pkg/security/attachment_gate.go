package security

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-contact-relay/pkg/email"
	"go-contact-relay/pkg/security/antivirus"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedAttachmentType is the only MIME type the gate admits.
const AllowedAttachmentType = "application/pdf"

var (
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
	ErrAttachmentTooLarge    = fmt.Errorf("%w: file exceeds the size limit", ErrUnsupportedAttachment)
	ErrMultipleAttachments   = fmt.Errorf("%w: only one file may be attached", ErrUnsupportedAttachment)
	ErrMalwareDetected       = fmt.Errorf("%w: file failed the malware scan", ErrUnsupportedAttachment)
)

// Upload is one uploaded file as received from the client.
type Upload struct {
	Filename    string
	ContentType string // as declared by the client
	Size        int64  // as declared by the client, -1 when unknown
	Reader      io.Reader
	// Extra counts further files posted under the same field
	Extra int
}

// GateConfig configures an AttachmentGate.
type GateConfig struct {
	MaxBytes int64
	// Sniff also requires the content itself to look like a PDF
	Sniff   bool
	Scanner antivirus.Scanner
}

// AttachmentGate admits one PDF of at most MaxBytes and keeps it in memory.
type AttachmentGate struct {
	maxBytes int64
	sniff    bool
	scanner  antivirus.Scanner
}

func NewAttachmentGate(cfg GateConfig) *AttachmentGate {
	scanner := cfg.Scanner
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	return &AttachmentGate{
		maxBytes: cfg.MaxBytes,
		sniff:    cfg.Sniff,
		scanner:  scanner,
	}
}

// MaxBytes returns the size ceiling.
func (g *AttachmentGate) MaxBytes() int64 {
	return g.maxBytes
}

// Check returns (nil, nil) when there is no upload. Rejections wrap
// ErrUnsupportedAttachment.
func (g *AttachmentGate) Check(ctx context.Context, upload *Upload) (*email.Attachment, error) {
	if upload == nil {
		return nil, nil
	}
	if upload.Extra > 0 {
		return nil, ErrMultipleAttachments
	}

	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(upload.ContentType)), AllowedAttachmentType) {
		return nil, fmt.Errorf("%w: content type %q is not allowed", ErrUnsupportedAttachment, upload.ContentType)
	}
	if upload.Size > g.maxBytes {
		return nil, ErrAttachmentTooLarge
	}

	// Read one byte past the limit so an understated Size is still caught
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(upload.Reader, g.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if n > g.maxBytes {
		return nil, ErrAttachmentTooLarge
	}
	data := buf.Bytes()

	if g.sniff {
		if detected := mimetype.Detect(data); !detected.Is(AllowedAttachmentType) {
			return nil, fmt.Errorf("%w: content looks like %s", ErrUnsupportedAttachment, detected.String())
		}
	}

	if result := g.scanner.Scan(ctx, upload.Filename, data); !result.Clean() {
		if result.Error != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalwareDetected, result.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrMalwareDetected, result.ThreatName)
	}

	return &email.Attachment{
		Filename:    SanitizeFilename(upload.Filename),
		ContentType: AllowedAttachmentType,
		Content:     data,
	}, nil
}

// SanitizeFilename keeps the base name and drops control characters and quotes.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "attachment.pdf"
	}
	return name
}
