package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/facenotebackend/media"
)

// PlaceholderImage serves the gray SVG used for synthetic quiz options.
// Dimensions come from the URL; anything unparsable falls back to 150.
func PlaceholderImage(w http.ResponseWriter, r *http.Request) {
	width, err := strconv.Atoi(chi.URLParam(r, "width"))
	if err != nil {
		width = 150
	}
	height, err := strconv.Atoi(chi.URLParam(r, "height"))
	if err != nil {
		height = 150
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	_, _ = w.Write([]byte(media.PlaceholderSVG(width, height)))
}
