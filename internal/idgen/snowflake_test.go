package idgen

import (
	"strings"
	"testing"
)

func TestOrderNoUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		no := OrderNo()
		if !strings.HasPrefix(no, "SO") {
			t.Fatalf("order no should start with SO, got %s", no)
		}
		if _, ok := seen[no]; ok {
			t.Fatalf("duplicate order no %s", no)
		}
		seen[no] = struct{}{}
	}
}

func TestInitNodeRejectsOutOfRange(t *testing.T) {
	if err := InitNode("bad", 5000); err == nil {
		t.Fatalf("node id beyond 10 bits should fail")
	}
	if _, err := NewFrom("missing"); err == nil {
		t.Fatalf("uninitialized node should return error")
	}
}
