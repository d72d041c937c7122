package httpx

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// Client returns the shared HTTP client used for all external calls.
func Client() *http.Client {
	return externalHTTPClient
}

// ConfigureExternalHTTPClient applies the configured timeout (in seconds)
// to the shared client and returns the applied value. Non-positive values
// keep the default.
func ConfigureExternalHTTPClient(seconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}
