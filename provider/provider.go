// Package provider implements the generative backends the translation
// service talks to.
package provider

import (
	"net/http"

	"github.com/orbitsmeet/livetl"
)

// AIProvider is an alias to the main package interface for convenience.
type AIProvider = livetl.AIProvider

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
