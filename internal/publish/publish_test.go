package publish

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphlabs/glyph/internal/ledger"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// fakeUploader records every upload and serves scripted results in call
// order.
type fakeUploader struct {
	mu      sync.Mutex
	results []uploadResult
	calls   []uploadCall
}

type uploadResult struct {
	txID string
	err  error
}

type uploadCall struct {
	data        []byte
	contentType string
	tags        []ledger.Tag
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, contentType string, tags []ledger.Tag, _ ledger.Signer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uploadCall{data: data, contentType: contentType, tags: tags})
	if len(f.results) == 0 {
		return "", glypherr.ErrTransport
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.txID, r.err
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSigner struct {
	connected bool
	address   string
}

func (f *fakeSigner) Connected() bool       { return f.connected }
func (f *fakeSigner) PublicAddress() string { return f.address }

func (f *fakeSigner) SignTransaction(_ context.Context, payload []byte) ([]byte, error) {
	return append([]byte("sig:"), payload...), nil
}

func validRequest() Request {
	return Request{
		Media:         []byte("media-bytes"),
		MediaType:     "video/mp4",
		Thumbnail:     []byte("thumb-bytes"),
		ThumbnailType: "image/png",
		Metadata:      Metadata{Title: "First Drop", Description: "a test item"},
		Tags:          []ledger.Tag{{Name: "App-Name", Value: "glyph"}},
	}
}

func TestPublish_Success(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{results: []uploadResult{
		{txID: "tx_media_1"},
		{txID: "tx_thumb_1"},
		{txID: "tx_meta_1"},
	}}
	signer := &fakeSigner{connected: true, address: "Addr123"}
	p := NewPublisher(uploader, nil)

	desc, err := p.Publish(context.Background(), validRequest(), signer)
	require.NoError(t, err)
	assert.Equal(t, Descriptor{
		MediaTxID:     "tx_media_1",
		ThumbnailTxID: "tx_thumb_1",
		MetadataTxID:  "tx_meta_1",
	}, desc)

	require.Len(t, uploader.calls, 3)
	assert.Equal(t, []byte("media-bytes"), uploader.calls[0].data)
	assert.Equal(t, "video/mp4", uploader.calls[0].contentType)
	assert.Equal(t, []byte("thumb-bytes"), uploader.calls[1].data)
	assert.Equal(t, "image/png", uploader.calls[1].contentType)
	assert.Equal(t, "application/json", uploader.calls[2].contentType)

	// The metadata record references the two earlier accepted ids.
	var record metadataRecord
	require.NoError(t, json.Unmarshal(uploader.calls[2].data, &record))
	assert.Equal(t, "tx_media_1", record.MediaTxID)
	assert.Equal(t, "tx_thumb_1", record.ThumbnailTxID)
	assert.Equal(t, "First Drop", record.Title)
	assert.Equal(t, "Addr123", record.Creator)
	assert.NotEmpty(t, record.CreatedAt)
}

func TestPublish_RequiresConnectedSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signer ledger.Signer
	}{
		{name: "nil signer", signer: nil},
		{name: "disconnected signer", signer: &fakeSigner{connected: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uploader := &fakeUploader{}
			p := NewPublisher(uploader, nil)

			_, err := p.Publish(context.Background(), validRequest(), tt.signer)
			require.Error(t, err)
			assert.True(t, glypherr.Is(err, glypherr.ErrNotConnected))
			assert.Zero(t, uploader.callCount(), "publish must not touch the network without a session")
		})
	}
}

func TestPublish_MediaFailureHaltsSaga(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{results: []uploadResult{
		{err: glypherr.ErrSubmissionRejected},
	}}
	p := NewPublisher(uploader, nil)

	_, err := p.Publish(context.Background(), validRequest(), &fakeSigner{connected: true, address: "Addr123"})
	require.Error(t, err)
	assert.True(t, glypherr.Is(err, glypherr.ErrSubmissionRejected))
	assert.Equal(t, 1, uploader.callCount(), "thumbnail and metadata must never be uploaded")
}

func TestPublish_ThumbnailFailureOrphansMedia(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{results: []uploadResult{
		{txID: "tx_media_1"},
		{err: glypherr.ErrTransport},
	}}
	p := NewPublisher(uploader, nil)

	// tx_media_1 exists on the ledger but is not surfaced: no rollback is
	// attempted and the caller must treat the run as fully failed.
	desc, err := p.Publish(context.Background(), validRequest(), &fakeSigner{connected: true, address: "Addr123"})
	require.Error(t, err)
	assert.True(t, glypherr.Is(err, glypherr.ErrTransport))
	assert.Equal(t, Descriptor{}, desc)
	assert.Equal(t, 2, uploader.callCount(), "metadata must never be uploaded after a failed asset")
}

func TestPublish_MetadataFailureReturnsNoDescriptor(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{results: []uploadResult{
		{txID: "tx_media_1"},
		{txID: "tx_thumb_1"},
		{err: glypherr.ErrSubmissionRejected},
	}}
	p := NewPublisher(uploader, nil)

	desc, err := p.Publish(context.Background(), validRequest(), &fakeSigner{connected: true, address: "Addr123"})
	require.Error(t, err)
	assert.Equal(t, Descriptor{}, desc)
	assert.Equal(t, 3, uploader.callCount())
}

func TestPublish_ValidatesRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "empty media", mutate: func(r *Request) { r.Media = nil }},
		{name: "missing media type", mutate: func(r *Request) { r.MediaType = "" }},
		{name: "empty thumbnail", mutate: func(r *Request) { r.Thumbnail = nil }},
		{name: "missing thumbnail type", mutate: func(r *Request) { r.ThumbnailType = "" }},
		{name: "missing title", mutate: func(r *Request) { r.Metadata.Title = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uploader := &fakeUploader{}
			p := NewPublisher(uploader, nil)

			req := validRequest()
			tt.mutate(&req)

			_, err := p.Publish(context.Background(), req, &fakeSigner{connected: true, address: "Addr123"})
			require.Error(t, err)
			assert.True(t, glypherr.Is(err, glypherr.ErrInvalidInput))
			assert.Zero(t, uploader.callCount())
		})
	}
}
