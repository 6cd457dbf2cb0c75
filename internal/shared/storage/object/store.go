package object

import (
	"context"
	"fmt"
	"io"
	"path"

	"skincare-backend/internal/shared/util"
)

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// SessionNamespace groups a session's uploads under a hash of its owner.
func SessionNamespace(ownerID, sessionID string) (string, error) {
	sid, err := util.SafeName(sessionID)
	if err != nil {
		return "", fmt.Errorf("session namespace: %w", err)
	}
	return path.Join(util.OwnerKey(ownerID), sid), nil
}
