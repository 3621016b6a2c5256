package order

// DefaultDisclosures is the catalogue shown on the review screen. Labels
// surface verbatim in the UI; only the mandatory ones gate submission.
func DefaultDisclosures() []Disclosure {
	return []Disclosure{
		{ID: "risk", Label: "I understand the risks of investing in securities", Mandatory: true},
		{ID: "tariff", Label: "I have read the tariff sheet and agree to the charges", Mandatory: true},
		{ID: "research", Label: "Send me research updates for this instrument", Mandatory: false},
	}
}

// DisclosureReadiness reports whether every mandatory disclosure has been
// acknowledged. Optional items never affect the outcome, and an
// acknowledgment for an unknown ID is ignored rather than counted.
func DisclosureReadiness(acks map[string]bool, disclosures []Disclosure) bool {
	for _, d := range disclosures {
		if d.Mandatory && !acks[d.ID] {
			return false
		}
	}
	return true
}

// FinalReadiness is the gate on the submission control: the final consent
// AND every mandatory disclosure. Final consent alone is never enough.
func FinalReadiness(acks map[string]bool, disclosures []Disclosure, finalConsent bool) bool {
	return finalConsent && DisclosureReadiness(acks, disclosures)
}
