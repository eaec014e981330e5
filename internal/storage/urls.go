package storage

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const artifactExtension = ".pdf"

// URLScheme derives externally addressable URLs from artifact ids and
// parses them back. Both directions are pure functions of the id, so the
// scheme can change without touching stored rows.
type URLScheme struct {
	// BaseURL is the public storage host, e.g. https://storage.googleapis.com.
	BaseURL string
	// Bucket is the bucket segment prefixed to every object path.
	Bucket string
}

// versionSegment matches the version prefix some issued URLs carry after
// the bucket (e.g. /v1712345/), which ExtractID must skip over.
var versionSegment = regexp.MustCompile(`^v\d+$`)

func (s URLScheme) URLFor(artifactID string, variant Variant) string {
	parts := strings.Split(artifactID, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	u := fmt.Sprintf("%s/%s/%s%s",
		strings.TrimRight(s.BaseURL, "/"),
		s.Bucket,
		strings.Join(parts, "/"),
		artifactExtension,
	)
	if variant == VariantDownload {
		u += "?response-content-disposition=attachment"
	}
	return u
}

// ExtractID is the inverse of URLFor: it recovers the artifact id from the
// URL path, skipping the bucket and an optional version segment and
// stripping the file extension. Returns "" for unrecognized shapes.
func (s URLScheme) ExtractID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.EscapedPath(), "/"), "/")
	if len(segments) < 2 || segments[0] != s.Bucket {
		return ""
	}
	segments = segments[1:]
	if versionSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}

	for i := range segments {
		unescaped, err := url.PathUnescape(segments[i])
		if err != nil {
			return ""
		}
		segments[i] = unescaped
	}

	id := strings.Join(segments, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}
