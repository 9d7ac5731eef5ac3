// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package embedding maps canonical text strings to fixed-dimension,
// L2-normalized vectors. The real sentence-embedding model is treated as
// an external collaborator; this package exposes a pluggable Embedder
// interface with a deterministic hash-based fallback that is always
// available and is what every test in this repository runs against.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/mfolsom1/eventreco/internal/apperrors"
)

// BatchSize is the maximum number of texts embedded in a single call to
// the underlying model, matching the Model Builder's batching contract.
const BatchSize = 64

// Embedder maps texts to L2-normalized vectors of a fixed dimension.
type Embedder interface {
	// Embed returns one row per input text, in input order. Identical
	// inputs must yield bit-identical rows within a run, and batching
	// must not change results: Embed(a, b) and concatenating Embed(a),
	// Embed(b) produce the same rows for the same texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dim reports the fixed output dimension.
	Dim() int
}

// Mode selects behavior when the underlying model is unreachable.
type Mode string

const (
	// ModeStrict raises a fatal error on model-load failure.
	ModeStrict Mode = "strict"
	// ModeLenient substitutes the deterministic hash-based fallback.
	ModeLenient Mode = "lenient"
)

// HashEmbedder is the deterministic fallback embedder: it hashes each input
// text into Dim floats in [-1, 1] and L2-normalizes the result. No network,
// no model weights, fully reproducible across runs and platforms.
type HashEmbedder struct {
	dim     int
	limiter *rate.Limiter
}

// NewHashEmbedder constructs a HashEmbedder of the given dimension. dim
// must be positive.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{
		dim: dim,
		// Bounds concurrent embedding work to one batch's worth of calls
		// per tick, matching the Model Builder's single-logical-thread
		// batching contract even when callers fan out goroutines.
		limiter: rate.NewLimiter(rate.Limit(BatchSize), BatchSize),
	}
}

func (h *HashEmbedder) Dim() int { return h.dim }

// Embed implements Embedder using the hash-then-normalize scheme described
// in the package doc.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, apperrors.Wrap(apperrors.Degraded, "embedding rate limiter interrupted", err)
		}
		out[i] = hashVector(text, h.dim)
	}
	return out, nil
}

// hashVector deterministically derives a unit-norm vector of length dim
// from text by expanding a SHA-256 digest into a stream of pseudo-random
// floats via successive re-hashing, then normalizing.
func hashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))
	block := seed
	idx := 0
	for idx < dim {
		block = sha256.Sum256(block[:])
		for i := 0; i+4 <= len(block) && idx < dim; i += 4 {
			u := binary.BigEndian.Uint32(block[i : i+4])
			// Map uint32 range to [-1, 1].
			f := float64(u)/float64(math.MaxUint32)*2 - 1
			v[idx] = float32(f)
			idx++
		}
	}
	return Normalize(v)
}

// Normalize returns a copy of v scaled to unit L2 norm. A zero vector is
// returned unchanged (norm zero is a degenerate but valid input for empty
// canonical text).
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// New selects an Embedder based on mode and the requested dimension.
// ModeStrict without a configured remote endpoint always fails fast: this
// repository ships no real model, so strict mode without an endpoint is a
// configuration error, not a silent fallback.
func New(mode Mode, dim int, remoteEndpoint string) (Embedder, error) {
	switch mode {
	case ModeLenient, "":
		return NewHashEmbedder(dim), nil
	case ModeStrict:
		if remoteEndpoint == "" {
			return nil, apperrors.New(apperrors.Internal, "strict_embedding requires embedding_remote_endpoint to be configured")
		}
		return NewRemoteEmbedder(remoteEndpoint, dim), nil
	default:
		return nil, apperrors.New(apperrors.InvalidArgument, fmt.Sprintf("unknown embedding mode %q", mode))
	}
}
