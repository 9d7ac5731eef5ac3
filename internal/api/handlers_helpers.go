// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/mfolsom1/eventreco/internal/validation"
)

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or an APIError if validation fails.
//
// Example:
//
//	req := RecommendRequestBody{ViewerID: viewerID, K: k}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
