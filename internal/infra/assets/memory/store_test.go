package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"fieldbook/internal/assets/core"
)

func TestPutGetDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "assets/p1.jpg", strings.NewReader("img"), core.PutOptions{ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "assets/p1.jpg", strings.NewReader("other"), core.PutOptions{}); err == nil {
		t.Fatal("overwrite succeeded; keys are create-only")
	}

	info, rc, err := store.Get(ctx, "assets/p1.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "img" || info.ContentType != "image/jpeg" {
		t.Fatalf("body=%q info=%+v", body, info)
	}

	existed, err := store.Delete(ctx, "assets/p1.jpg")
	if err != nil || !existed {
		t.Fatalf("delete existed=%v err=%v", existed, err)
	}
	existed, _ = store.Delete(ctx, "assets/p1.jpg")
	if existed {
		t.Fatal("second delete reported existence")
	}
	if _, _, err := store.Get(ctx, "assets/p1.jpg"); err == nil {
		t.Fatal("get after delete succeeded")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("abc"), core.PutOptions{Metadata: map[string]string{"a": "1"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, _ := store.Get(ctx, "k")
	_ = rc.Close()
	info.Metadata["a"] = "mutated"
	again, _, _ := store.Get(ctx, "k")
	if again.Metadata["a"] != "1" {
		t.Fatal("metadata aliases stored entry")
	}
}

func TestListSortedByKey(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, k := range []string{"b", "a", "exp/c"} {
		if _, err := store.Put(ctx, k, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	infos, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 3 || infos[0].Key != "a" || infos[1].Key != "b" || infos[2].Key != "exp/c" {
		t.Fatalf("list = %+v, want sorted keys", infos)
	}
	scoped, _ := store.List(ctx, "exp/")
	if len(scoped) != 1 || scoped[0].Key != "exp/c" {
		t.Fatalf("scoped list = %+v", scoped)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); err != core.ErrUnsupported {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
