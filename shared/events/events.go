package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	MemberCreated = "member.created"
	MemberUpdated = "member.updated"
	MemberDeleted = "member.deleted"

	CafeCreated = "cafe.created"
	CafeUpdated = "cafe.updated"
	CafeDeleted = "cafe.deleted"
	CafeRated   = "cafe.rated"

	PostCreated = "post.created"
	PostUpdated = "post.updated"
	PostDeleted = "post.deleted"

	PostBookmarkCreated = "post_bookmark.created"
	PostBookmarkDeleted = "post_bookmark.deleted"
	CafeBookmarkCreated = "cafe_bookmark.created"
	CafeBookmarkDeleted = "cafe_bookmark.deleted"
)

// Stream names
const (
	MemberEventsStream   = "member.events"
	CafeEventsStream     = "cafe.events"
	PostEventsStream     = "post.events"
	BookmarkEventsStream = "bookmark.events"
)

// Event is the envelope stored in every stream entry. ID is unique per
// publish; Source names the publishing service.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-reads the loosely typed Data payload into out.
func (e Event) Decode(out any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", e.Type, err)
	}
	return nil
}

// Member events
type MemberCreatedEvent struct {
	MemberID string   `json:"memberId"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Source   string   `json:"source"`
}

type MemberUpdatedEvent struct {
	MemberID    string `json:"memberId"`
	DisplayName string `json:"displayName"`
}

// MemberDeletedEvent lists the cafes whose ratings went stale because the
// member's posts were removed with them, and the cafes whose bookmark count
// dropped because the member's bookmarks were.
type MemberDeletedEvent struct {
	MemberID          string   `json:"memberId"`
	AffectedCafeIDs   []string `json:"affectedCafeIds"`
	BookmarkedCafeIDs []string `json:"bookmarkedCafeIds,omitempty"`
}

// Cafe events
type CafeEvent struct {
	CafeID  string `json:"cafeId"`
	OwnerID string `json:"ownerId"`
	Name    string `json:"name,omitempty"`
}

type CafeRatedEvent struct {
	CafeID    string  `json:"cafeId"`
	Rating    float64 `json:"rating"`
	PostCount int     `json:"postCount"`
}

// Post events
type PostEvent struct {
	PostID   string `json:"postId"`
	CafeID   string `json:"cafeId"`
	MemberID string `json:"memberId"`
	Rating   int    `json:"rating"`
}

// Bookmark events
type BookmarkEvent struct {
	MemberID string `json:"memberId"`
	TargetID string `json:"targetId"`
}
