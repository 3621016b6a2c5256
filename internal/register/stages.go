package register

import (
	"regexp"
	"strings"

	"investgate/internal/sequence"
)

// Stage indexes for the registration rail.
const (
	StageEmail = iota
	StageVerify
	StageProfile
)

// The same permissive local@domain.tld shape used across the product.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks the first stage: a plausible address to send the
// code to.
func ValidateEmail(form Form) sequence.Result {
	if !emailRe.MatchString(form.Email) {
		return sequence.Blocked("email", "Enter a valid email address")
	}
	return sequence.Satisfied()
}

// ValidateVerified gates on a completed OTP round-trip.
func ValidateVerified(form Form) sequence.Result {
	if !form.EmailVerified {
		return sequence.Blocked("email", "Verify your email to continue")
	}
	return sequence.Satisfied()
}

// ValidateProfile checks the final stage.
func ValidateProfile(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if strings.TrimSpace(form.FirstName) == "" {
		causes = append(causes, sequence.FieldCause{Field: "first_name", Message: "First name is required"})
	}
	if strings.TrimSpace(form.LastName) == "" {
		causes = append(causes, sequence.FieldCause{Field: "last_name", Message: "Last name is required"})
	}
	if strings.TrimSpace(form.Phone) == "" {
		causes = append(causes, sequence.FieldCause{Field: "phone", Message: "Phone number is required"})
	}
	if strings.TrimSpace(form.Source) == "" {
		causes = append(causes, sequence.FieldCause{Field: "source", Message: "Tell us how you heard about us"})
	}
	if !emailRe.MatchString(form.Email) {
		causes = append(causes, sequence.FieldCause{Field: "email", Message: "Enter a valid email address"})
	}
	return sequence.Result{Causes: causes}
}

// Stages returns the three ordered registration stages.
func Stages() []sequence.Stage[Form] {
	return []sequence.Stage[Form]{
		{Index: StageEmail, Label: "Email", Validate: ValidateEmail},
		{Index: StageVerify, Label: "Verification", Validate: ValidateVerified},
		{Index: StageProfile, Label: "Profile", Terminal: true, Validate: ValidateProfile},
	}
}
