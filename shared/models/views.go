package models

import "time"

// CafeView is one row of a cafe search result.
// IsBookmarked is relative to the member that ran the search.
type CafeView struct {
	ID            string    `json:"cafeId" db:"id"`
	Name          string    `json:"name" db:"name"`
	Address       string    `json:"address" db:"address"`
	Image         string    `json:"image" db:"image"`
	Rating        float64   `json:"rating" db:"rating"`
	RatingStale   bool      `json:"ratingStale" db:"rating_stale"`
	BookmarkCount int       `json:"countBookmark" db:"bookmark_count"`
	PostCount     int       `json:"countPost" db:"post_count"`
	IsBookmarked  bool      `json:"isBookmarked" db:"is_bookmarked"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// CafeDetailView is the read-optimised projection of a single cafe. The
// viewer-independent part is cached in Redis; IsBookmarked and IsOwner are
// filled in per request.
type CafeDetailView struct {
	ID            string `json:"cafeId" db:"id"`
	OwnerID       string `json:"ownerId" db:"owner_id"`
	Name          string `json:"name" db:"name"`
	Address       string `json:"address" db:"address"`
	ContactNumber string `json:"contactNumber" db:"contact_number"`
	Notice        string `json:"notice" db:"notice"`
	Image         string `json:"image" db:"image"`
	OpenTime      string `json:"openTime" db:"open_time"`
	CloseTime     string `json:"closeTime" db:"close_time"`
	Facilities
	Rating        float64   `json:"rating" db:"rating"`
	RatingStale   bool      `json:"ratingStale" db:"rating_stale"`
	BookmarkCount int       `json:"countBookmark" db:"bookmark_count"`
	PostCount     int       `json:"countPost" db:"post_count"`
	IsBookmarked  bool      `json:"isBookmarked" db:"-"`
	IsOwner       bool      `json:"isOwner" db:"-"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// PostView is the read projection of a post, joined with its cafe and author.
type PostView struct {
	ID           string    `json:"postId" db:"id"`
	CafeID       string    `json:"cafeId" db:"cafe_id"`
	CafeName     string    `json:"cafeName" db:"cafe_name"`
	AuthorID     string    `json:"authorId" db:"member_id"`
	AuthorName   string    `json:"author" db:"author_name"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	Image        string    `json:"image" db:"image"`
	Rating       int       `json:"rating" db:"rating"`
	IsBookmarked bool      `json:"isBookmarked" db:"is_bookmarked"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PostSummary is the my-page list item for a post.
type PostSummary struct {
	PostID string `json:"postId" db:"id"`
	Image  string `json:"image" db:"image"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
}

// MemberView never exposes PasswordHash. PostCount and BookmarkCount come
// from the Redis stats read model.
type MemberView struct {
	ID            string    `json:"memberId"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	Image         string    `json:"image"`
	Roles         []string  `json:"roles"`
	IsPrivacy     bool      `json:"isPrivacy"`
	PostCount     int64     `json:"countPost"`
	BookmarkCount int64     `json:"countBookmark"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PageInfo struct {
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

func NewPageInfo(page Page, total int) PageInfo {
	pages := 0
	if page.Size > 0 {
		pages = (total + page.Size - 1) / page.Size
	}
	return PageInfo{Page: page.Number, Size: page.Size, TotalElements: total, TotalPages: pages}
}

type CafePage struct {
	Content  []CafeView `json:"content"`
	PageInfo PageInfo   `json:"pageInfo"`
}

type PostPage struct {
	Content  []PostView `json:"content"`
	PageInfo PageInfo   `json:"pageInfo"`
}

type PostSummaryPage struct {
	Content  []PostSummary `json:"content"`
	PageInfo PageInfo      `json:"pageInfo"`
}
