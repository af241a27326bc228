package cqrs

import "github.com/cafein/cafein-server/shared/models"

// ---------- Member queries ----------

// GetMemberQuery fetches the requesting member's own profile.
type GetMemberQuery struct {
	MemberID string
}

// ListMemberPostsQuery fetches the posts a member wrote, newest first.
type ListMemberPostsQuery struct {
	MemberID string
	Page     models.Page
}

// ---------- Cafe queries ----------

// GetCafeQuery fetches a cafe detail. ViewerID is empty for anonymous viewers.
type GetCafeQuery struct {
	CafeID   string
	ViewerID string
}

// SearchCafesQuery runs a filtered cafe search for ViewerID.
type SearchCafesQuery struct {
	ViewerID string
	Filter   models.FilterCondition
	Page     models.Page
}

// ---------- Post queries ----------

type GetPostQuery struct {
	PostID   string
	ViewerID string
}

type ListPostsQuery struct {
	ViewerID string
	Page     models.Page
}

// ListCafePostsQuery fetches the reviews written about one cafe.
type ListCafePostsQuery struct {
	CafeID   string
	ViewerID string
	Page     models.Page
}
