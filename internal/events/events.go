// Package events defines the outbound event topics and payloads published
// by the server. Delivery-side concerns (mailing the admin about a signup,
// mailing a reset link) live in external consumers of these events.
package events

import (
	"context"

	"github.com/Self-Labs/pmes/internal/model"
)

// Event topic constants
const (
	TopicScheduleSaved = "pmes.schedule.saved"

	TopicUnitCreated = "pmes.unit.created"
	TopicUnitUpdated = "pmes.unit.updated"
	TopicUnitDeleted = "pmes.unit.deleted"

	TopicUserSignup   = "pmes.user.signup"
	TopicUserApproved = "pmes.user.approved"

	TopicPasswordResetRequested = "pmes.auth.password_reset_requested"
)

// Event types

type ScheduleSaved struct {
	Schedule *model.Schedule `json:"schedule"`
	SavedBy  string          `json:"saved_by"`
}

type UnitCreated struct {
	Unit *model.Unit `json:"unit"`
}

type UnitUpdated struct {
	Unit *model.Unit `json:"unit"`
}

type UnitDeleted struct {
	UnitID string `json:"unit_id"`
	Sigla  string `json:"sigla"`
}

// UserSignup is consumed by the external mailer that notifies the
// administrator about a pending approval. UnitSigla is the label of the
// unit the user registered under, already resolved server-side.
type UserSignup struct {
	User      *model.User `json:"user"`
	UnitSigla string      `json:"unit_sigla,omitempty"`
}

type UserApproved struct {
	User *model.User `json:"user"`
}

// PasswordResetRequested carries the plaintext reset token to the external
// mailer. This is the only place the plaintext token appears after issuance.
type PasswordResetRequested struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Publisher is the interface for publishing events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
