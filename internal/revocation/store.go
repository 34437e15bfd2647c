// Package revocation provides the persisted set of revoked token ids checked
// on every authenticated request.
//
// Two backends satisfy the Store contract: a durable postgres table and a
// redis keyspace with native expiry. A deployment picks one via
// auth.revocationBackend. With a replicated redis, IsRevoked on a replica may
// lag the revoking write by the replication window; that relaxation is a
// property of the deployment topology, not of this interface.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	// Revoke marks the token id invalid until expiresAt. Revoking an
	// already-revoked id is a no-op success.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time, reason string) error

	// IsRevoked reports whether the token id has been revoked. Callers
	// must treat an error as "revoked" (fail closed).
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// SweepExpired removes entries whose expiry has passed. Safe because
	// past expiry the token fails validation on its own.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
