package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation error")

const signedURLTTL = 15 * time.Minute

type ObjectStorage interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Resolver turns a track's stored audio reference into a fetchable URL.
// Tracks uploaded through the app carry a bucket object key; externally
// hosted tracks carry a full URL which passes through untouched.
type Resolver struct {
	storage ObjectStorage
	ttl     time.Duration
}

func NewResolver(storage ObjectStorage, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = signedURLTTL
	}
	return &Resolver{
		storage: storage,
		ttl:     ttl,
	}
}

func (r *Resolver) ResolveAudioURL(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrValidation
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	if r.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	signed, err := r.storage.PresignGet(ctx, strings.TrimPrefix(ref, "/"), r.ttl)
	if err != nil {
		return "", fmt.Errorf("presign audio url: %w", err)
	}

	return signed, nil
}
