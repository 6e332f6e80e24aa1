package appscript

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	drivePathID  = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveQueryID = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// FormatDriveLink rewrites a Google Drive share link into the lh3
// direct-view form so the image renders inline. Base64 data URLs and
// non-Drive URLs pass through unchanged.
func FormatDriveLink(url string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "data:") {
		return url
	}
	if strings.Contains(url, "lh3.googleusercontent.com") {
		return url
	}
	if !strings.Contains(url, "google.com") {
		return url
	}

	var id string
	if m := drivePathID.FindStringSubmatch(url); m != nil {
		id = m[1]
	} else if m := driveQueryID.FindStringSubmatch(url); m != nil {
		id = m[1]
	}

	if id == "" {
		return url
	}
	return fmt.Sprintf("https://lh3.googleusercontent.com/d/%s", id)
}
