package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestStoreRoundTripAgainstMongo(t *testing.T) {
	uri := os.Getenv("STOREPOS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set STOREPOS_TEST_MONGO_URI to run mongo integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, uri, "storepos_test", "record_collections")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := fmt.Sprintf("it:orders:%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.collection.DeleteOne(ctx, bson.M{"_id": key})
		_ = s.Close()
	})

	missing, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil payload for unwritten key, got %s", missing)
	}

	if err := s.Set(ctx, key, []byte(`[{"id":"o1"}]`)); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := s.Set(ctx, key, []byte(`[{"id":"o2"}]`)); err != nil {
		t.Fatalf("second set: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":"o2"}]` {
		t.Fatalf("expected overwritten payload, got %s", got)
	}
}
