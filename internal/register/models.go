package register

import (
	"time"

	"github.com/google/uuid"
)

// FlowType tags resume tokens for this flow.
const FlowType = "registration"

// Form is the accumulated state of one registration flow.
type Form struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
}

// Registration is one prospect's three-stage signup. A user ID is assigned
// only when the flow completes.
type Registration struct {
	ID          uuid.UUID  `json:"id"`
	StageIndex  int        `json:"stage_index"`
	Form        Form       `json:"form"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Profile is the final-stage payload.
type Profile struct {
	FirstName string
	LastName  string
	Phone     string
	Source    string
}
