package domain

import "time"

// BookmarkID derives the bookmark key from a story ID. The derivation is
// deterministic so the same story can never be bookmarked under two keys.
func BookmarkID(storyID string) string {
	return "bookmark_" + storyID
}

// Bookmark is a local-only annotation over a Story. StoryData is a full
// snapshot taken at bookmark time: offline viewing must not depend on the
// original record still being retrievable.
type Bookmark struct {
	ID        string
	StoryID   string
	StoryData Story
	CreatedAt time.Time
}
