package kyc

import "investgate/internal/sequence"

// Stage indexes, exported for the clickable step rail and tests.
const (
	StagePANDetails = iota
	StageBankProof
	StageAddress
	StageEmailVerification
	StagePhoneVerification
	StageSegment
	StageESign
)

// Stages returns the seven ordered KYC stages. The slice is rebuilt per
// call so sequences never share stage state.
func Stages() []sequence.Stage[Form] {
	return []sequence.Stage[Form]{
		{Index: StagePANDetails, Label: "PAN details", Validate: ValidatePANDetails},
		{Index: StageBankProof, Label: "Bank proof", Validate: ValidateBankProof},
		{Index: StageAddress, Label: "Address", Validate: ValidateAddress},
		{Index: StageEmailVerification, Label: "Email verification", Validate: ValidateEmailVerified},
		{Index: StagePhoneVerification, Label: "Phone verification", Validate: ValidatePhoneVerified},
		{Index: StageSegment, Label: "Trading segment", Validate: ValidateSegment},
		{Index: StageESign, Label: "eSign", Terminal: true, Validate: ValidateESign},
	}
}
