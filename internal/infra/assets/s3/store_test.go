package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"fieldbook/internal/assets/core"
)

func TestMockRoundTrip(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s, want s3", store.Driver())
	}

	info, err := store.Put(ctx, "exp1/assets/p1.jpg", strings.NewReader("image-bytes"), core.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "exp1/assets/p1.jpg" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(ctx, "exp1/assets/p1.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "image-bytes" {
		t.Fatalf("body = %q", body)
	}
	if got.ContentType != "image/jpeg" {
		t.Fatalf("content type = %q", got.ContentType)
	}

	if _, err := store.Put(ctx, "exp1/assets/p1.jpg", strings.NewReader("other"), core.PutOptions{}); err == nil {
		t.Fatal("overwrite succeeded; keys are create-only")
	}

	infos, err := store.List(ctx, "exp1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "exp1/assets/p1.jpg" {
		t.Fatalf("list = %+v", infos)
	}

	existed, err := store.Delete(ctx, "exp1/assets/p1.jpg")
	if err != nil || !existed {
		t.Fatalf("delete existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "exp1/assets/p1.jpg"); err == nil {
		t.Fatal("head after delete succeeded")
	}
}

func TestPresignURL(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "exp1/assets/p1.jpg", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "exp1/assets/p1.jpg") {
		t.Fatalf("url %q does not reference the key", url)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("presign put err = %v, want ErrUnsupported", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("missing bucket accepted")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("FIELDBOOK_ASSET_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("missing bucket env accepted")
	}
}
