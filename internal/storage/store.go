// Package storage persists the application's collections in a local
// key-value store. Each collection is written wholesale as a JSON array
// under its own key.
package storage

import "context"

// Collection keys.
const (
	KeyRecords  = "records"
	KeyServices = "services"
	KeyClients  = "clients"
)

// Keys lists every collection key in a fixed order.
var Keys = []string{KeyRecords, KeyServices, KeyClients}

// Store is the persistence contract: whole-value get/set per key.
type Store interface {
	// Get returns the stored value for key, or nil when the key has
	// never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases any resources held by the store.
	Close() error
}
