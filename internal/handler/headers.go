package handler

import (
	"Go_Share/internal/dto"
	"Go_Share/internal/expiry"
	"Go_Share/internal/naming"
	"Go_Share/internal/service"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// requestOptions holds everything parsed from the upload headers.
type requestOptions struct {
	upload service.UploadOptions
	noJSON bool
}

func headerBool(h http.Header, key string) bool {
	switch strings.ToLower(strings.TrimSpace(h.Get(key))) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// parseUploadHeaders validates the request-wide headers. It runs before any file
// is touched so a bad header rejects the whole request.
func parseUploadHeaders(h http.Header, host, defaultFormat string, now time.Time) (requestOptions, error) {
	var out requestOptions
	opts := &out.upload

	if raw := strings.TrimSpace(h.Get("image-compression-percent")); raw != "" {
		percent, err := strconv.Atoi(raw)
		if err != nil {
			return out, service.RequestError("invalid compression percent (invalid number)")
		}
		if percent < 0 || percent > 100 {
			return out, service.RequestError("invalid compression percent (0-100)")
		}
		opts.CompressionPercent = percent
	}

	if raw := strings.TrimSpace(h.Get("max-views")); raw != "" {
		views, err := strconv.Atoi(raw)
		if err != nil {
			return out, service.RequestError("invalid max views (invalid number)")
		}
		if views < 0 {
			return out, service.RequestError("invalid max views (max views < 0)")
		}
		opts.MaxViews = &views
	}

	if raw := strings.TrimSpace(h.Get("expires-at")); raw != "" {
		at, err := expiry.Parse(raw, now)
		if err != nil {
			return out, service.RequestError("invalid expiration date: %s", raw)
		}
		opts.ExpiresAt = at
	}

	format := strings.TrimSpace(h.Get("format"))
	if format == "" {
		format = defaultFormat
	}
	opts.Format = naming.ParseKind(format)

	if raw := strings.TrimSpace(h.Get("x-zipline-folder")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return out, service.RequestError("invalid folder id")
		}
		opts.FolderID = &id
	}

	opts.FilenameOverride = strings.TrimSpace(h.Get("x-zipline-filename"))
	opts.KeepOriginalName = headerBool(h, "original-name")
	opts.OverrideDomain = strings.TrimSpace(h.Get("override-domain"))
	opts.Password = h.Get("password")
	opts.Invisible = headerBool(h, "zws")
	opts.Embed = headerBool(h, "embed")
	opts.ForceText = headerBool(h, "uploadtext")
	opts.Host = host
	out.noJSON = headerBool(h, "no-json")
	return out, nil
}

func parseChunkHeaders(h http.Header) dto.ChunkHeaders {
	return dto.ChunkHeaders{
		ContentRange: strings.TrimSpace(h.Get("Content-Range")),
		Filename:     strings.TrimSpace(h.Get("x-zipline-partial-filename")),
		Mimetype:     strings.TrimSpace(h.Get("x-zipline-partial-mimetype")),
		Identifier:   strings.TrimSpace(h.Get("x-zipline-partial-identifier")),
		LastChunk:    headerBool(h, "x-zipline-partial-lastchunk"),
	}
}
