// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return resp
}

func TestResponseWriter_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/recommend", nil)

	NewResponseWriter(rec, req).Success(map[string]string{"ok": "yes"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("Success = false, want true")
	}
	if resp.Meta == nil {
		t.Fatalf("Meta is nil")
	}
}

func TestResponseWriter_Accepted(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)

	NewResponseWriter(rec, req).Accepted(map[string]string{"message": "build started"})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestResponseWriter_ErrorHelpers(t *testing.T) {
	cases := []struct {
		name       string
		call       func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"BadRequest", func(rw *ResponseWriter) { rw.BadRequest("bad") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"NotFound", func(rw *ResponseWriter) { rw.NotFound("missing") }, http.StatusNotFound, ErrCodeNotFound},
		{"Conflict", func(rw *ResponseWriter) { rw.Conflict("busy") }, http.StatusConflict, ErrCodeConflict},
		{"InternalError", func(rw *ResponseWriter) { rw.InternalError("oops") }, http.StatusInternalServerError, ErrCodeInternalError},
		{"ServiceUnavailable", func(rw *ResponseWriter) { rw.ServiceUnavailable("down") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"ValidationError", func(rw *ResponseWriter) { rw.ValidationError("invalid", nil) }, http.StatusBadRequest, ErrCodeValidationFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/recommend", nil)
			tc.call(NewResponseWriter(rec, req))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			resp := decodeResponse(t, rec)
			if resp.Success {
				t.Fatalf("Success = true, want false")
			}
			if resp.Error == nil || resp.Error.Code != tc.wantCode {
				t.Fatalf("Error = %+v, want code %s", resp.Error, tc.wantCode)
			}
		})
	}
}
