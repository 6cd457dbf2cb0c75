package wizard

import (
	"time"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
)

// State is the session's position in its flow. CurrentStep is 1-based and
// always within [1, TotalSteps].
type State struct {
	CurrentStep int `json:"currentStep"`
	TotalSteps  int `json:"totalSteps"`
}

// Session is one user's run through a flow.
type Session struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"ownerId"`
	Flow      string                 `json:"flow"`
	State     State                  `json:"state"`
	Profile   *profile.Store         `json:"profile"`
	Result    *recommendation.Result `json:"result,omitempty"`
	Notice    *recommendation.Notice `json:"notice,omitempty"`
	ImageKey  string                 `json:"imageKey,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// NewSession starts a session at the first step of flow.
func NewSession(id, ownerID string, flow Flow, now time.Time) *Session {
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		Flow:      flow.Name,
		State:     State{CurrentStep: 1, TotalSteps: flow.TotalSteps()},
		Profile:   profile.NewStore(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) AtResults() bool {
	return s.State.CurrentStep == s.State.TotalSteps
}
