package ledger

import (
	"context"
	"encoding/hex"
	"strconv"

	"github.com/glyphlabs/glyph/internal/metrics"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// Upload constructs a transaction around data, signs it via the connected
// identity, and submits it to the gateway. The returned id means the network
// accepted the submission at the HTTP level; confirmation is asynchronous and
// observed separately through GetStatus.
//
// The Content-Type tag is attached first, followed by caller tags in their
// supplied order. Duplicates are permitted and order is preserved on the
// wire.
//
// The payload is signed once, before any retry: identical bytes and tags
// produce an identical digest and signature, so resubmitting after an
// ambiguous transport failure cannot produce a divergent record. Rejections
// are never retried.
func (c *Client) Upload(ctx context.Context, data []byte, contentType string, tags []Tag, signer Signer) (string, error) {
	if signer == nil || !signer.Connected() {
		return "", glypherr.ErrUnsignedPayload
	}

	if len(data) == 0 {
		return "", glypherr.Wrap(glypherr.ErrInvalidInput, "payload is empty")
	}
	if int64(len(data)) > c.maxPayload {
		return "", glypherr.WithDetails(glypherr.ErrDataTooLarge, map[string]string{
			"size": fmtBytes(len(data)),
			"max":  fmtBytes(int(c.maxPayload)),
		})
	}

	owner := signer.PublicAddress()

	wireTags := make([]Tag, 0, len(tags)+1)
	wireTags = append(wireTags, Tag{Name: ContentTypeTagName, Value: contentType})
	wireTags = append(wireTags, tags...)

	digest := signingDigest(data, wireTags, owner)

	signature, err := signer.SignTransaction(ctx, digest[:])
	if err != nil {
		metrics.Global.RecordUpload(len(data), err)
		// Pass the rejection through untouched; the caller must be able to
		// tell "user declined" apart from transport failure.
		return "", err
	}

	sr := submitRequest{
		Data:      encodeBytes(data),
		Tags:      wireTags,
		Owner:     owner,
		Signature: encodeBytes(signature),
		Digest:    hex.EncodeToString(digest[:]),
	}

	txID, err := RetryWithConfig(ctx, c.retryCfg, func(attempt int, retryErr error) {
		metrics.Global.RecordUploadRetry()
		c.logger.Debug("ledger: retrying submission (attempt %d): %v", attempt, retryErr)
	}, func() (string, error) {
		return c.submit(ctx, sr)
	})

	metrics.Global.RecordUpload(len(data), err)
	if err != nil {
		return "", err
	}

	c.logger.Debug("ledger: accepted transaction %s (%d bytes)", txID, len(data))
	return txID, nil
}

// Record builds a TransactionRecord for an accepted upload without another
// digest computation by the caller.
func (c *Client) Record(txID string, data []byte, contentType string, tags []Tag, owner string) TransactionRecord {
	wireTags := make([]Tag, 0, len(tags)+1)
	wireTags = append(wireTags, Tag{Name: ContentTypeTagName, Value: contentType})
	wireTags = append(wireTags, tags...)

	digest := signingDigest(data, wireTags, owner)
	return TransactionRecord{
		ID:     txID,
		Digest: hex.EncodeToString(digest[:]),
		Status: StatusPending,
	}
}

// fmtBytes renders a byte count for error details.
func fmtBytes(n int) string {
	return strconv.Itoa(n) + " bytes"
}
