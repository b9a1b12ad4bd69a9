package media

import "fmt"

// PlaceholderPhotoPath is the photo reference carried by synthetic quiz
// options; the router serves it via the placeholder handler.
const PlaceholderPhotoPath = "/api/placeholder/150/150"

const defaultPlaceholderSize = 150

// PlaceholderSVG renders a neutral gray placeholder image labeled with its
// dimensions, used for quiz decoys that do not correspond to a real person.
func PlaceholderSVG(width, height int) string {
	if width <= 0 {
		width = defaultPlaceholderSize
	}
	if height <= 0 {
		height = defaultPlaceholderSize
	}
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%%" height="100%%" fill="#f3f4f6"/>
  <text x="50%%" y="50%%" font-family="Arial, sans-serif" font-size="14" fill="#9ca3af" text-anchor="middle" dy=".3em">%d×%d</text>
</svg>
`, width, height, width, height)
}
