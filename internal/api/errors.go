// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/query"
	"github.com/tomtom215/threathub/internal/store"
	"github.com/tomtom215/threathub/internal/validation"
)

// respondError maps a domain error onto the envelope. Unknown errors become
// a generic 500 without leaking internals.
func respondError(rw *ResponseWriter, r *http.Request, err error) {
	var (
		detErr   *detection.DetectionError
		queryErr *query.Error
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.Is(err, detection.ErrCollaboratorUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Detection collaborator unavailable")
		rw.ServiceUnavailable(err.Error())

	case errors.As(err, &detErr):
		logging.Ctx(r.Context()).Error().Err(err).Str("method", string(detErr.Method)).Msg("Detection failed")
		rw.Error(http.StatusInternalServerError, ErrCodeDetectionFailed, detErr.Error())

	case errors.As(err, &queryErr):
		respondValidation(rw, queryErr.Validation)

	case errors.Is(err, store.ErrAlertNotFound):
		rw.NotFound(err.Error())

	case errors.Is(err, store.ErrInvalidStatus):
		rw.ValidationError(err.Error(), map[string]interface{}{"field": "status"})

	case errors.As(err, &maxErr):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Unhandled API error")
		rw.InternalError("internal server error")
	}
}

func respondValidation(rw *ResponseWriter, verr *validation.RequestValidationError) {
	if verr == nil {
		rw.ValidationError("Validation failed", nil)
		return
	}
	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
}

// sanitizeLogValue escapes control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
