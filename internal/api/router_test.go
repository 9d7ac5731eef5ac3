// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h, nil)
	srv := httptest.NewServer(router.SetupChi())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Recommend(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h, nil)
	srv := httptest.NewServer(router.SetupChi())
	defer srv.Close()

	body, err := json.Marshal(RecommendRequestBody{ViewerID: "user_003", K: 5})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/recommend/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
