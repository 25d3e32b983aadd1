// Package ledger provides the content-addressed ledger client. It turns an
// in-memory payload plus tag metadata into a durable ledger record, using a
// connected wallet identity for signing. Submission is synchronous with
// respect to network accept; confirmation is asynchronous and polled by the
// caller, never awaited internally.
package ledger

import (
	"context"

	"golang.org/x/crypto/blake2b"
)

// Tag is an ordered name/value metadata pair attached to a transaction.
// Order is part of the wire contract and duplicate names are permitted
// (multiple Content-Type tags round-trip in the order supplied).
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ContentTypeTagName is the required tag carrying the payload content type.
// It is always the first tag on a submitted transaction.
const ContentTypeTagName = "Content-Type"

// Status is the ledger-side transaction status. Transitions only move
// forward; Failed is terminal and a failed transaction must be resubmitted
// as a new record, never retried in place.
type Status string

// Transaction statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal returns true for statuses that can never change again.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// TransactionRecord describes a submitted ledger transaction.
type TransactionRecord struct {
	// ID is the ledger-assigned content identifier, known only after the
	// network accepts the submission.
	ID string `json:"id"`

	// Digest is the locally computed payload digest. Identical bytes and tags
	// produce an identical digest, which is what makes resubmission after an
	// ambiguous transport failure safe.
	Digest string `json:"digest"`

	// Status is the last observed status.
	Status Status `json:"status"`
}

// Signer is the signing capability the client needs from the wallet session.
// The session manager satisfies it.
type Signer interface {
	// Connected reports whether an identity is available for signing.
	Connected() bool

	// PublicAddress returns the connected public address.
	PublicAddress() string

	// SignTransaction signs the transaction digest.
	SignTransaction(ctx context.Context, payload []byte) ([]byte, error)
}

// signingDigest computes the blake2b-256 digest over the canonical signing
// material: payload bytes, tags in their supplied order, and the owner
// address. Length-prefixed fields keep the encoding unambiguous.
func signingDigest(data []byte, tags []Tag, owner string) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil) // no key, cannot fail

	writeField := func(b []byte) {
		var length [8]byte
		n := len(b)
		for i := 7; i >= 0; i-- {
			length[i] = byte(n)
			n >>= 8
		}
		_, _ = h.Write(length[:])
		_, _ = h.Write(b)
	}

	writeField(data)
	for _, tag := range tags {
		writeField([]byte(tag.Name))
		writeField([]byte(tag.Value))
	}
	writeField([]byte(owner))

	var digest [blake2b.Size256]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
