//go:build !wasm
// +build !wasm

package gae

import (
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	ob "github.com/panyam/oneblog"
)

func TestNamespacedKey(t *testing.T) {
	b := base{namespace: "tenant-1"}
	key := b.namespacedKey(KindOTC, "a@x.com")
	if key.Kind != KindOTC || key.Name != "a@x.com" || key.Namespace != "tenant-1" {
		t.Errorf("unexpected key %v", key)
	}
}

func TestEntityConversions(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	user := &ob.User{ID: "u1", Name: "A", Email: "a@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	ue := UserToEntity(user, datastore.NameKey(KindUser, user.ID, nil))
	if got := ue.ToUser(); *got != *user {
		t.Errorf("user round trip = %+v", got)
	}

	blog := &ob.Blog{ID: "b1", Title: "T", Description: "D", AuthorEmail: "a@x.com", CreatedAt: now, UpdatedAt: now}
	be := BlogToEntity(blog, datastore.NameKey(KindBlog, blog.ID, nil))
	if got := be.ToBlog(); *got != *blog {
		t.Errorf("blog round trip = %+v", got)
	}

	rec := &ob.OTCRecord{Email: "a@x.com", Code: "123456", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	oe := OTCRecordToEntity(rec, datastore.NameKey(KindOTC, rec.Email, nil))
	if got := oe.ToOTCRecord(); *got != *rec {
		t.Errorf("otc round trip = %+v", got)
	}
}
