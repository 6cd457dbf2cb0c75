package sessions

import (
	"context"
	"encoding/json"
	"fmt"

	"skincare-backend/internal/wizard"
)

// Repo persists wizard sessions.
type Repo interface {
	Create(ctx context.Context, s *wizard.Session) error
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Update(ctx context.Context, s *wizard.Session) error
	Delete(ctx context.Context, id string) error
}

func encodeSession(s *wizard.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

func decodeSession(data []byte) (*wizard.Session, error) {
	var s wizard.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
