package events

import "time"

const (
	TypeUserRegistered     = "user_registered"
	TypeUserLoggedIn       = "user_logged_in"
	TypeTokenReuseDetected = "token_reuse_detected"
	TypeUserDeleted        = "user_deleted"
	TypeOpsAlert           = "ops_alert"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username,omitempty"`
	At       time.Time `json:"at"`
}
