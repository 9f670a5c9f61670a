package httpserver

import (
	"net/http"
	"time"
)

// Request bodies are small (connection details plus a list of external ids),
// so reads stay tight. Writes get headroom because an import batch fetches
// every requested record from the remote source before the response starts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = time.Minute
)

// New builds the HTTP server with the timeouts this service wants.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
