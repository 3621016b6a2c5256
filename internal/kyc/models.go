package kyc

import (
	"time"

	"github.com/google/uuid"
)

// FlowType tags resume tokens for this flow.
const FlowType = "kyc"

// ProofDocument is the metadata of an uploaded bank proof. The bytes live
// in the blob store under StorageKey.
type ProofDocument struct {
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	StorageKey  string `json:"storage_key"`
}

// ESignConsents are the three independent acknowledgments the signature
// step requires before the provider may be invoked.
type ESignConsents struct {
	Terms   bool `json:"terms"`
	Tariff  bool `json:"tariff"`
	Aadhaar bool `json:"aadhaar"`
}

// All reports whether every consent is checked.
func (c ESignConsents) All() bool {
	return c.Terms && c.Tariff && c.Aadhaar
}

// Form is the accumulated state of one KYC flow. Stage validators read it;
// only the service mutates it.
type Form struct {
	// Identity details.
	PAN         string `json:"pan"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	FatherName  string `json:"father_name"`
	Residency   string `json:"residency"`

	// Bank account and proof.
	AccountNumber string         `json:"account_number"`
	IFSC          string         `json:"ifsc"`
	BankProof     *ProofDocument `json:"bank_proof,omitempty"`

	// Correspondence address.
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`

	// Contact verification. The identifiers come from registration; the
	// flags flip only through OTP verification.
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phone_verified"`

	// Trading segment profile.
	Occupation        string `json:"occupation"`
	IncomeRange       string `json:"income_range"`
	TradingExperience string `json:"trading_experience"`

	// Signature step.
	Consents  ESignConsents `json:"consents"`
	ESignDone bool          `json:"esign_done"`
}

// Flow is one user's KYC progression. StageIndex is the only persisted
// cursor; stage completion is always derived from it.
type Flow struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	StageIndex  int        `json:"stage_index"`
	Form        Form       `json:"form"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PANDetails is the identity payload for the first stage.
type PANDetails struct {
	PAN         string
	FullName    string
	DateOfBirth string
	FatherName  string
	Residency   string
}

// BankDetails is the account payload accompanying the proof upload.
type BankDetails struct {
	AccountNumber string
	IFSC          string
}

// Address is the correspondence address payload.
type Address struct {
	AddressLine string
	City        string
	State       string
	Pincode     string
}

// Segment is the trading profile payload.
type Segment struct {
	Occupation        string
	IncomeRange       string
	TradingExperience string
}
