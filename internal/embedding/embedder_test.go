// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(384)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"music festival"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"music festival"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashEmbedderBatchInvariance(t *testing.T) {
	e := NewHashEmbedder(384)
	ctx := context.Background()

	batched, err := e.Embed(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)

	individualA, err := e.Embed(ctx, []string{"a"})
	require.NoError(t, err)
	individualB, err := e.Embed(ctx, []string{"b"})
	require.NoError(t, err)
	individualC, err := e.Embed(ctx, []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, batched[0], individualA[0])
	assert.Equal(t, batched[1], individualB[0])
	assert.Equal(t, batched[2], individualC[0])
}

func TestHashEmbedderL2Normalized(t *testing.T) {
	e := NewHashEmbedder(384)
	ctx := context.Background()

	rows, err := e.Embed(ctx, []string{"a fairly long piece of canonical text about a festival"})
	require.NoError(t, err)

	var sumSq float64
	for _, x := range rows[0] {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashEmbedderDimension(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()

	rows, err := e.Embed(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Len(t, rows[0], 128)
	assert.Equal(t, 128, e.Dim())
}

func TestNewStrictWithoutEndpointFails(t *testing.T) {
	_, err := New(ModeStrict, 384, "")
	require.Error(t, err)
}

func TestNewLenientDefault(t *testing.T) {
	emb, err := New(ModeLenient, 384, "")
	require.NoError(t, err)
	assert.Equal(t, 384, emb.Dim())
}
