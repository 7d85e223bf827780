package idempotency

import (
	"errors"
	"sync"

	"gitlab.com/sfr-tokyo/economy_api/net/redis"
)

// reservation ttl in seconds, long enough to cover a retry storm
const keyTTLSeconds = 86400

// ErrNotConnected godoc
var ErrNotConnected = errors.New("idempotency store not connected")

// Store keeps idempotency key reservations in redis with an in process
// fallback for tests
type Store struct {
	client *redis.Client
	lock   *sync.Mutex
	local  map[string]string
}

var store *Store

func init() {
	store = &Store{
		lock:  &sync.Mutex{},
		local: map[string]string{},
	}
}

// Init binds the store to a connected redis client
func Init(client *redis.Client) {
	store.client = client
}

// Reserve claims the key for a transaction id. Returns the already stored
// transaction id and false when the key was claimed before.
func Reserve(key, transactionID string) (string, bool, error) {
	if store.client == nil {
		store.lock.Lock()
		defer store.lock.Unlock()
		if existing, ok := store.local[key]; ok {
			return existing, false, nil
		}
		store.local[key] = transactionID
		return transactionID, true, nil
	}

	var set int
	err := store.client.Exec(&set, "SETNX", "economy:idem:"+key, transactionID)
	if err != nil {
		return "", false, err
	}
	if set == 1 {
		var expired int
		_ = store.client.Exec(&expired, "EXPIRE", "economy:idem:"+key, keyTTLSeconds)
		return transactionID, true, nil
	}
	var existing string
	if err := store.client.Exec(&existing, "GET", "economy:idem:"+key); err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// Release drops a reservation after a failed attempt so the client may retry
// with the same key
func Release(key string) error {
	if store.client == nil {
		store.lock.Lock()
		defer store.lock.Unlock()
		delete(store.local, key)
		return nil
	}
	var deleted int
	return store.client.Exec(&deleted, "DEL", "economy:idem:"+key)
}
