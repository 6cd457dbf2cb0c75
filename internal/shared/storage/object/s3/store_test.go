package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/session/face.jpg", want: "owner/session/face.jpg"},
		{name: "simple prefix", prefix: "root", key: "owner/session/face.jpg", want: "root/owner/session/face.jpg"},
		{name: "prefix trailing slash", prefix: "root/", key: "owner/session/face.jpg", want: "root/owner/session/face.jpg"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/owner/session/face.jpg", want: "root/owner/session/face.jpg"},
		{name: "nested prefix", prefix: "root/sub", key: "owner/session/face.jpg", want: "root/sub/owner/session/face.jpg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeAPI struct {
	put    *s3.PutObjectInput
	body   []byte
	delKey string
}

func (f *fakeAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delKey = aws.ToString(params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestSaveUploadsWithPrefixAndEncryption(t *testing.T) {
	api := &fakeAPI{}
	store := NewWithClient(api, "bucket", "uploads/", "kms-key")
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

	obj, err := store.Save(context.Background(), "owner/session-1", "face.jpg", bytes.NewReader(jpeg))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.MimeType != "image/jpeg" || obj.Size != int64(len(jpeg)) {
		t.Fatalf("unexpected object: %+v", obj)
	}
	if got := aws.ToString(api.put.Key); got != "uploads/"+obj.Key {
		t.Fatalf("object key = %q, storage key = %q", got, obj.Key)
	}
	if api.put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(api.put.SSEKMSKeyId) != "kms-key" {
		t.Fatalf("expected KMS encryption")
	}
	if !bytes.Equal(api.body, jpeg) {
		t.Fatalf("uploaded body mismatch")
	}

	if err := store.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if api.delKey != "uploads/"+obj.Key {
		t.Fatalf("deleted %q", api.delKey)
	}
}
