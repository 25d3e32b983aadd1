// Package publish drives the multi-asset publication saga: media, then
// thumbnail, then a metadata record referencing both, uploaded sequentially
// to the ledger. The metadata upload is the commit point; an earlier failure
// aborts the saga and leaves any already-accepted asset as an orphaned but
// harmless ledger record (the ledger has no delete).
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/ledger"
	"github.com/glyphlabs/glyph/internal/metrics"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// Uploader submits a payload to the ledger. *ledger.Client satisfies it;
// tests substitute counting fakes.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string, tags []ledger.Tag, signer ledger.Signer) (string, error)
}

// Metadata holds the caller-supplied descriptive fields embedded in the
// published metadata record.
type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Request is one publication attempt. Tags are appended, in order, to every
// asset upload after the required Content-Type tag.
type Request struct {
	Media         []byte
	MediaType     string
	Thumbnail     []byte
	ThumbnailType string
	Metadata      Metadata
	Tags          []ledger.Tag
}

// Descriptor names the three ledger transactions of a fully successful
// publication. A partial run returns an error and no descriptor; callers
// must treat any error as "nothing usable was persisted".
type Descriptor struct {
	MediaTxID     string `json:"media_tx_id"`
	ThumbnailTxID string `json:"thumbnail_tx_id"`
	MetadataTxID  string `json:"metadata_tx_id"`
}

// metadataRecord is the JSON document uploaded as the final saga step. Its
// embedded transaction ids name assets that were submission-accepted before
// this record was submitted.
type metadataRecord struct {
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Creator       string            `json:"creator"`
	MediaTxID     string            `json:"media_tx_id"`
	MediaType     string            `json:"media_type"`
	ThumbnailTxID string            `json:"thumbnail_tx_id"`
	ThumbnailType string            `json:"thumbnail_type"`
	CreatedAt     string            `json:"created_at"`
	Extra         map[string]string `json:"extra,omitempty"`
}

const metadataContentType = "application/json"

// Publisher orchestrates publications against an injected uploader and
// signer. Construct once and share; each Publish call is self-contained.
type Publisher struct {
	uploader Uploader
	logger   *config.Logger
	now      func() time.Time
}

// PublisherOptions configures optional Publisher behavior.
type PublisherOptions struct {
	Logger *config.Logger
}

// NewPublisher creates a Publisher using the given uploader.
func NewPublisher(uploader Uploader, opts *PublisherOptions) *Publisher {
	p := &Publisher{
		uploader: uploader,
		logger:   config.NullLogger(),
		now:      time.Now,
	}
	if opts != nil && opts.Logger != nil {
		p.logger = opts.Logger
	}
	return p
}

// Publish runs the saga: media, thumbnail, metadata, strictly in that order.
// It requires an already-connected signer and never initiates a connection
// itself. The first failing step halts the saga; earlier accepted uploads
// are not rolled back and their ids are not returned.
func (p *Publisher) Publish(ctx context.Context, req Request, signer ledger.Signer) (d Descriptor, err error) {
	defer func() { metrics.Global.RecordPublish(err) }()

	if signer == nil || !signer.Connected() {
		return Descriptor{}, glypherr.Wrap(glypherr.ErrNotConnected, "publish requires a connected wallet session")
	}
	if err := validateRequest(req); err != nil {
		return Descriptor{}, err
	}

	mediaTx, err := p.uploader.Upload(ctx, req.Media, req.MediaType, req.Tags, signer)
	if err != nil {
		p.logger.Error("publish: media upload failed: %v", err)
		return Descriptor{}, glypherr.WithDetails(err, map[string]string{"step": "media"})
	}
	p.logger.Debug("publish: media accepted as %s", mediaTx)

	thumbTx, err := p.uploader.Upload(ctx, req.Thumbnail, req.ThumbnailType, req.Tags, signer)
	if err != nil {
		// mediaTx is now an orphaned ledger record; accepted cost on an
		// append-only ledger.
		p.logger.Error("publish: thumbnail upload failed (media %s orphaned): %v", mediaTx, err)
		return Descriptor{}, glypherr.WithDetails(err, map[string]string{"step": "thumbnail"})
	}
	p.logger.Debug("publish: thumbnail accepted as %s", thumbTx)

	record := metadataRecord{
		Title:         req.Metadata.Title,
		Description:   req.Metadata.Description,
		Creator:       signer.PublicAddress(),
		MediaTxID:     mediaTx,
		MediaType:     req.MediaType,
		ThumbnailTxID: thumbTx,
		ThumbnailType: req.ThumbnailType,
		CreatedAt:     p.now().UTC().Format(time.RFC3339),
		Extra:         req.Metadata.Extra,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return Descriptor{}, glypherr.Wrap(err, "failed to encode metadata record")
	}

	metaTx, err := p.uploader.Upload(ctx, payload, metadataContentType, req.Tags, signer)
	if err != nil {
		p.logger.Error("publish: metadata upload failed (media %s, thumbnail %s orphaned): %v", mediaTx, thumbTx, err)
		return Descriptor{}, glypherr.WithDetails(err, map[string]string{"step": "metadata"})
	}
	p.logger.Debug("publish: committed as %s", metaTx)

	return Descriptor{
		MediaTxID:     mediaTx,
		ThumbnailTxID: thumbTx,
		MetadataTxID:  metaTx,
	}, nil
}

func validateRequest(req Request) error {
	switch {
	case len(req.Media) == 0:
		return glypherr.Wrap(glypherr.ErrInvalidInput, "media payload is empty")
	case req.MediaType == "":
		return glypherr.Wrap(glypherr.ErrInvalidInput, "media content type is required")
	case len(req.Thumbnail) == 0:
		return glypherr.Wrap(glypherr.ErrInvalidInput, "thumbnail payload is empty")
	case req.ThumbnailType == "":
		return glypherr.Wrap(glypherr.ErrInvalidInput, "thumbnail content type is required")
	case req.Metadata.Title == "":
		return glypherr.Wrap(glypherr.ErrInvalidInput, "title is required")
	}
	return nil
}
