// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

// Package validation validates API request structs with
// go-playground/validator v10.
//
// A single validator instance is shared process wide; it caches struct
// metadata and is safe for concurrent use. Besides the built-in tags it
// registers:
//
//   - isodate: a YYYY-MM-DD calendar date.
//   - location: a location directory name. Non-empty, no path separators
//     or control characters, at most 128 bytes.
//   - fileid: a storage file or recognition entry id of letters, digits,
//     '-' and '_'.
//
// Failures convert to the API's VALIDATION_ERROR envelope via ToAPIError:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
