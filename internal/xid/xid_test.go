package xid

import (
	"strings"
	"testing"
)

func TestNewUsesPrefixAndIsUnique(t *testing.T) {
	seen := make(map[string]bool, 256)
	for i := 0; i < 256; i++ {
		id := New("ord")
		if !strings.HasPrefix(id, "ord_") {
			t.Fatalf("expected ord_ prefix, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewWithoutPrefixIsPlainUUID(t *testing.T) {
	id := New("")
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Fatalf("expected canonical uuid, got %q", id)
	}
}
