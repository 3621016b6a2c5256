package audit

import "time"

// Actions recorded by the gateway. Kept as constants so sinks can route on
// them without string drift.
const (
	ActionStageCompleted  = "stage_completed"
	ActionOTPVerified     = "otp_verified"
	ActionESignCompleted  = "esign_completed"
	ActionESignFailed     = "esign_failed"
	ActionOrderAuthorized = "order_authorized"
	ActionOrderRejected   = "order_rejected"
	ActionFlowCompleted   = "flow_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	FlowID    string    `json:"flow_id,omitempty"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Device    string    `json:"device,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
