package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize is the per-file upload limit.
const MaxAttachmentSize = 50 * 1024 * 1024

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".mp4":  true,
	".mov":  true,
	".webm": true,
	// Note: SVG is intentionally excluded due to XSS risk without sanitization
}

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"audio/mpeg":      true,
	"audio/mp4":       true,
	"audio/wave":      true,
	"audio/wav":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// ValidateAttachmentBySniff checks the provided filename (extension) and the
// first bytes (head) against a whitelist of letter and multimedia formats.
// Returns the detected mime type or an error.
func ValidateAttachmentBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("only JPG, PNG, GIF, PDF, MP3, M4A, WAV, MP4, MOV and WEBM files are supported")
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("invalid file type: HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		// Block SVG/XML until a sanitizer is available
		return "", errors.New("SVG and XML files are not supported")
	}

	// Some formats (e.g. m4a) come back as octet-stream depending on Go version
	if detected == "application/octet-stream" && allowedExt[ext] {
		return detected, nil
	}

	// http.DetectContentType may append codec parameters for media types
	if base, _, ok := strings.Cut(detected, ";"); ok {
		detected = strings.TrimSpace(base)
	}

	if allowedMime[detected] {
		return detected, nil
	}

	return "", errors.New("this file type is not supported")
}
