package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"skincare-backend/internal/shared/storage/object"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	ns, err := object.SessionNamespace("guest:abc", "session-1")
	if err != nil {
		t.Fatalf("SessionNamespace: %v", err)
	}

	obj, err := store.Save(ctx, ns, "selfie.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.MimeType != "image/png" || obj.Size != int64(len(pngHeader)) {
		t.Fatalf("unexpected object: %+v", obj)
	}
	if !strings.HasPrefix(obj.Key, ns+"/") || !strings.HasSuffix(obj.Key, "_selfie.png") {
		t.Fatalf("unexpected key %q", obj.Key)
	}

	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, pngHeader) {
		t.Fatalf("content mismatch")
	}

	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, obj.Key); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist after delete, got %v", err)
	}
	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	if _, err := store.Open(ctx, "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.Save(ctx, "ns", "../x.png", bytes.NewReader(pngHeader)); err == nil {
		t.Fatalf("expected bad file name to be rejected")
	}
}
