// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

// APIError exposes apiError for direct unit testing.
var APIError = apiError
