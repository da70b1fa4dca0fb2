package mimetype

import "strings"

// OctetStream is the generic placeholder clients send when they do not know the type.
const OctetStream = "application/octet-stream"

var byExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"avif": "image/avif",
	"heic": "image/heic",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
}

// Resolve looks up the MIME type for a file extension, with or without the leading dot.
func Resolve(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "", false
	}
	mime, ok := byExtension[ext]
	return mime, ok
}

// IsImage reports whether a MIME type is an image type.
func IsImage(mime string) bool {
	return strings.HasPrefix(strings.ToLower(mime), "image/")
}
