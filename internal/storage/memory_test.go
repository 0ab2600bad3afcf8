package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	value, err := s.Get(context.Background(), KeyRecords)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != nil {
		t.Fatalf("missing key should yield nil, got %q", value)
	}
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, KeyClients, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := s.Get(ctx, KeyClients)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != `[{"id":"1"}]` {
		t.Fatalf("got %q", value)
	}

	// overwrite is wholesale
	if err := s.Set(ctx, KeyClients, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, _ = s.Get(ctx, KeyClients)
	if string(value) != `[]` {
		t.Fatalf("got %q after overwrite", value)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, KeyServices, []byte(`[1]`))
	value, _ := s.Get(ctx, KeyServices)
	value[0] = 'X'
	again, _ := s.Get(ctx, KeyServices)
	if string(again) != `[1]` {
		t.Fatalf("store contents mutated through returned slice: %q", again)
	}
}
