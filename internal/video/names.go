package video

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// S3 rejects keys longer than 1024 bytes.
const maxKeyLength = 1024

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".ts":   "video/mp2t",
}

// validateName checks an upload name: one path segment, printable, and
// short enough to fit under the namespace.
func (g *Gateway) validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case !utf8.ValidString(name):
	case strings.ContainsAny(name, `/\`):
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
	case len(g.prefix)+len(name) > maxKeyLength:
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidName, name)
}

// nameFromKey accepts only keys of the form <namespace>/<valid name>.
func (g *Gateway) nameFromKey(key string) (string, error) {
	name, ok := strings.CutPrefix(key, g.prefix)
	if !ok {
		return "", fmt.Errorf("%w: key %q is outside namespace %q", ErrInvalidName, key, g.prefix)
	}
	if err := g.validateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
