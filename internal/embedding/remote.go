// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package embedding

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/mfolsom1/eventreco/internal/apperrors"
)

// RemoteEmbedder calls an external embedding service over HTTP. It exists
// so strict_embedding has somewhere real to fail loudly against; no such
// service ships with this repository, and every test uses HashEmbedder
// instead.
type RemoteEmbedder struct {
	endpoint string
	dim      int
	client   *http.Client
}

// NewRemoteEmbedder constructs a RemoteEmbedder targeting endpoint.
func NewRemoteEmbedder(endpoint string, dim int) *RemoteEmbedder {
	return &RemoteEmbedder{
		endpoint: endpoint,
		dim:      dim,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *RemoteEmbedder) Dim() int { return r.dim }

type remoteEmbedRequest struct {
	Texts []string `json:"texts"`
}

type remoteEmbedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// Embed posts the batch to the configured endpoint and validates the
// returned dimension against the configured Dim, aborting with
// IntegrityError on mismatch.
func (r *RemoteEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(remoteEmbedRequest{Texts: texts})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Degraded, "embedding service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.Degraded, fmt.Sprintf("embedding service returned status %d", resp.StatusCode))
	}

	var out remoteEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "decode embed response", err)
	}

	for _, vec := range out.Vectors {
		if len(vec) != r.dim {
			return nil, apperrors.New(apperrors.IntegrityError, fmt.Sprintf("embedding service returned dimension %d, expected %d", len(vec), r.dim))
		}
	}

	return out.Vectors, nil
}
