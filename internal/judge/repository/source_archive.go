package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"codejudge/internal/common/storage"
	appErr "codejudge/pkg/errors"

	"github.com/klauspost/compress/zstd"
)

const (
	sourceContentType = "application/zstd"
	maxArchivedSource = 8 << 20
)

// SourceArchive stores submitted sources zstd-compressed in object storage.
type SourceArchive struct {
	storage storage.ObjectStorage
	bucket  string
	prefix  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSourceArchive creates an archive writing to bucket under prefix.
func NewSourceArchive(objStorage storage.ObjectStorage, bucket, prefix string) (*SourceArchive, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder failed: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxArchivedSource))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder failed: %w", err)
	}
	if prefix == "" {
		prefix = "sources"
	}
	return &SourceArchive{storage: objStorage, bucket: bucket, prefix: prefix, encoder: enc, decoder: dec}, nil
}

// Key returns the object key for a submission's source.
func (a *SourceArchive) Key(submissionID, languageID string) string {
	return path.Join(a.prefix, languageID, submissionID+".zst")
}

// Put compresses and uploads code, returning its object key.
func (a *SourceArchive) Put(ctx context.Context, submissionID, languageID, code string) (string, error) {
	if a == nil || a.storage == nil {
		return "", appErr.New(appErr.ServiceUnavailable).WithMessage("source archive is not configured")
	}
	compressed := a.encoder.EncodeAll([]byte(code), nil)
	key := a.Key(submissionID, languageID)
	if err := a.storage.PutObject(ctx, a.bucket, key, bytes.NewReader(compressed), int64(len(compressed)), sourceContentType); err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "archive source failed")
	}
	return key, nil
}

// Get downloads and decompresses an archived source.
func (a *SourceArchive) Get(ctx context.Context, key string) (string, error) {
	if a == nil || a.storage == nil {
		return "", appErr.New(appErr.ServiceUnavailable).WithMessage("source archive is not configured")
	}
	reader, err := a.storage.GetObject(ctx, a.bucket, key)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "fetch source failed")
	}
	defer reader.Close()
	compressed, err := io.ReadAll(io.LimitReader(reader, maxArchivedSource))
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "read source failed")
	}
	code, err := a.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "decompress source failed")
	}
	return string(code), nil
}

// Close releases the codec resources.
func (a *SourceArchive) Close() {
	a.encoder.Close()
	a.decoder.Close()
}
