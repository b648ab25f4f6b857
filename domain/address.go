package domain

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"httpchat/errors"
)

// Participants are identified by a client-asserted address. Possession of the
// address string is the whole capability model: nothing verifies that the
// caller actually controls the mailbox it names.

// addressPattern requires a non-whitespace local part, one '@' and a domain
// containing a dot. Intentionally loose compared to full RFC 5322.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// The standard "email" rule is stricter than our address language, so we
	// register the exact pattern instead.
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		s := NormalizeAddress(fl.Field().String())
		return addressPattern.MatchString(s) && !strings.Contains(s, ConversationSeparator)
	})
	return v
}

type addressCheck struct {
	Address string `validate:"required,address"`
}

// NormalizeAddress trims surrounding whitespace and lowercases the address.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateAddress reports whether s is a syntactically acceptable participant
// address after normalization. Addresses containing the conversation
// separator are rejected to keep conversation identifiers unambiguous.
func ValidateAddress(s string) error {
	if err := validate.Struct(addressCheck{Address: s}); err != nil {
		return errors.ErrInvalidAddress
	}
	return nil
}
