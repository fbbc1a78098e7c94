package common

import (
	"net/url"
	"strings"
)

// ImageRoutePrefix is the route under which image files are served
const ImageRoutePrefix = "/api/image/"

// ImagePath returns the request path for an image file. Each segment is escaped, the
// separators between them are kept.
func ImagePath(filename string) string {
	segments := strings.Split(filename, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return ImageRoutePrefix + strings.Join(segments, "/")
}
