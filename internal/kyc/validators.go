package kyc

import (
	"regexp"
	"strings"
	"time"

	"investgate/internal/sequence"
)

// Format patterns for the India-specific identifiers. PAN is five letters,
// four digits, one letter; IFSC is four letters, a literal zero, then six
// alphanumerics.
var (
	panRe     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscRe    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountRe = regexp.MustCompile(`^[0-9]{9,18}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidPAN reports whether s is a well-formed PAN.
func ValidPAN(s string) bool {
	return panRe.MatchString(s)
}

// ValidIFSC reports whether s is a well-formed IFSC code.
func ValidIFSC(s string) bool {
	return ifscRe.MatchString(s)
}

// ValidEmail applies the permissive local@domain.tld shape used across the
// product. Stricter RFC parsing is deliberately avoided.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidatePANDetails checks the identity stage.
func ValidatePANDetails(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if !ValidPAN(form.PAN) {
		causes = append(causes, sequence.FieldCause{Field: "pan", Message: "Enter PAN in format AAAAA9999A"})
	}
	if strings.TrimSpace(form.FullName) == "" {
		causes = append(causes, sequence.FieldCause{Field: "full_name", Message: "Full name is required"})
	}
	if _, err := time.Parse("2006-01-02", form.DateOfBirth); err != nil {
		causes = append(causes, sequence.FieldCause{Field: "date_of_birth", Message: "Enter date of birth as YYYY-MM-DD"})
	}
	if strings.TrimSpace(form.FatherName) == "" {
		causes = append(causes, sequence.FieldCause{Field: "father_name", Message: "Father's name is required"})
	}
	if strings.TrimSpace(form.Residency) == "" {
		causes = append(causes, sequence.FieldCause{Field: "residency", Message: "Select a residency status"})
	}
	return sequence.Result{Causes: causes}
}

// ValidateBankProof checks the bank stage: account format, IFSC format, and
// an attached proof document that already passed the type/size checks.
func ValidateBankProof(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if !accountRe.MatchString(form.AccountNumber) {
		causes = append(causes, sequence.FieldCause{Field: "account_number", Message: "Account number must be 9-18 digits"})
	}
	if !ValidIFSC(form.IFSC) {
		causes = append(causes, sequence.FieldCause{Field: "ifsc", Message: "Enter IFSC in format AAAA0XXXXXX"})
	}
	if form.BankProof == nil {
		causes = append(causes, sequence.FieldCause{Field: "bank_proof", Message: "Attach a bank proof document"})
	}
	return sequence.Result{Causes: causes}
}

// ValidateAddress checks the correspondence address stage.
func ValidateAddress(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if strings.TrimSpace(form.AddressLine) == "" {
		causes = append(causes, sequence.FieldCause{Field: "address_line", Message: "Address is required"})
	}
	if strings.TrimSpace(form.City) == "" {
		causes = append(causes, sequence.FieldCause{Field: "city", Message: "City is required"})
	}
	if strings.TrimSpace(form.State) == "" {
		causes = append(causes, sequence.FieldCause{Field: "state", Message: "State is required"})
	}
	if !pincodeRe.MatchString(form.Pincode) {
		causes = append(causes, sequence.FieldCause{Field: "pincode", Message: "Pincode must be 6 digits"})
	}
	return sequence.Result{Causes: causes}
}

// ValidateEmailVerified gates on a completed email OTP round-trip.
func ValidateEmailVerified(form Form) sequence.Result {
	if !form.EmailVerified {
		return sequence.Blocked("email", "Verify your email to continue")
	}
	return sequence.Satisfied()
}

// ValidatePhoneVerified gates on a completed phone OTP round-trip.
func ValidatePhoneVerified(form Form) sequence.Result {
	if !form.PhoneVerified {
		return sequence.Blocked("phone", "Verify your phone number to continue")
	}
	return sequence.Satisfied()
}

// ValidateSegment checks the trading profile stage.
func ValidateSegment(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if strings.TrimSpace(form.Occupation) == "" {
		causes = append(causes, sequence.FieldCause{Field: "occupation", Message: "Select an occupation"})
	}
	if strings.TrimSpace(form.IncomeRange) == "" {
		causes = append(causes, sequence.FieldCause{Field: "income_range", Message: "Select an income range"})
	}
	if strings.TrimSpace(form.TradingExperience) == "" {
		causes = append(causes, sequence.FieldCause{Field: "trading_experience", Message: "Select your trading experience"})
	}
	return sequence.Result{Causes: causes}
}

// ValidateESign requires all three consents and a provider success signal.
// Consents alone never satisfy the stage: a checked box without a signature
// must not complete KYC.
func ValidateESign(form Form) sequence.Result {
	var causes []sequence.FieldCause
	if !form.Consents.All() {
		causes = append(causes, sequence.FieldCause{Field: "consents", Message: "Accept all consents to continue"})
	}
	if !form.ESignDone {
		causes = append(causes, sequence.FieldCause{Field: "esign", Message: "Complete the eSign step to continue"})
	}
	return sequence.Result{Causes: causes}
}
