// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by [Store.Get] when no record exists for the key,
// either because it expired naturally or was explicitly revoked.
var ErrNoSession = errors.New("session: no record for key")

// Store is the external keyed store holding session records.
//
// The store is the single source of truth for revocation: deleting a record
// invalidates the matching token instantly even though the token itself is
// stateless. All operations are atomic per key; no multi-key transactions
// are required.
type Store interface {
	// Get fetches the record for a key. Returns [ErrNoSession] when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a record with a fixed expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes a record. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}
