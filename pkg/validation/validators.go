package validation

import (
	"net/mail"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Letters, spaces, and the punctuation people put in names: . ' -
	nameRegex = regexp.MustCompile(`^[\p{L}\p{M} .'-]+$`)

	// Digits with optional leading +, grouping by spaces, dashes, dots or parens
	phoneRegex = regexp.MustCompile(`^\+?\(?[0-9][0-9 ().-]*$`)
)

// New returns a validator with the custom rules registered and field names
// reported by their form tag, so errors read "email" instead of "Email".
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(formTagName)
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("single_line", SingleLine)
	_ = v.RegisterValidation("mail_address", MailAddress)
}

func formTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// ValidName validates that a string contains only valid name characters
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return nameRegex.MatchString(val)
}

// ValidPhone validates a phone number structure. Length is left to max.
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(val)
}

// SingleLine rejects values that would break a mail header.
func SingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}

// MailAddress requires a bare address that also parses as an RFC 5322
// addr-spec, so it can be used as a message header later on.
func MailAddress(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	addr, err := mail.ParseAddress(val)
	return err == nil && addr.Name == "" && addr.Address == val
}
