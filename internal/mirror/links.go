// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

package mirror

import "strings"

const (
	shareablePrefix = "https://drive.google.com/file/d/"
	shareableSuffix = "/view?usp=sharing"
	directPrefix    = "https://drive.google.com/uc?id="
)

// ShareableLink returns the browser view link of a file.
func ShareableLink(id string) string {
	return shareablePrefix + id + shareableSuffix
}

// DirectDownloadLink returns the direct download link of a file.
func DirectDownloadLink(id string) string {
	return directPrefix + id
}

// ExtractIDFromShareableLink inverts ShareableLink by removing its fixed
// prefix and suffix. Any other URL shape comes back unchanged apart from
// whichever of the two parts it happens to contain.
func ExtractIDFromShareableLink(link string) string {
	return strings.Replace(strings.Replace(link, shareablePrefix, "", 1), shareableSuffix, "", 1)
}

// ViewLinkFromDownloadLink turns a direct download link back into the
// shareable view link.
func ViewLinkFromDownloadLink(link string) string {
	return ShareableLink(strings.Replace(link, directPrefix, "", 1))
}
