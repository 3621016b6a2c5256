package otp

import "time"

// Channel is the out-of-band delivery route for a code.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// CodeLength is fixed across the product; the entry widgets render exactly
// this many cells.
const CodeLength = 6

// Challenge is one outstanding code for an identifier. The plaintext code
// is never stored; only its bcrypt hash survives issuance.
type Challenge struct {
	Identifier string    `json:"identifier"`
	Channel    Channel   `json:"channel"`
	CodeHash   string    `json:"code_hash"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
	LastSentAt time.Time `json:"last_sent_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is past its TTL.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
