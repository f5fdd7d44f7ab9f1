// Package views renders the server-side pages of the web console.
package views

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

//go:embed static/favicon.svg
var faviconFS []byte

// StaticHandler serves the embedded assets under /static/.
var StaticHandler = http.FileServer(http.FS(staticFS))

// FaviconHandler handles the favicon.ico request
func FaviconHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=7776000")
	_, _ = w.Write(faviconFS)
}
