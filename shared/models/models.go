package models

import (
	"slices"
	"time"

	"github.com/cafein/cafein-server/shared/apperr"
)

const (
	RoleUser  = "USER"
	RoleOwner = "OWNER"
)

type Member struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image"`
	Roles        []string  `json:"roles"`
	IsPrivacy    bool      `json:"isPrivacy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (m *Member) HasRole(role string) bool {
	return slices.Contains(m.Roles, role)
}

// Facilities are the amenity flags a cafe advertises. Field names match the
// front-end's facility keys.
type Facilities struct {
	IsOpenAllTime       bool `json:"isOpenAllTime" db:"is_open_all_time"`
	IsChargingAvailable bool `json:"isChargingAvailable" db:"is_charging_available"`
	HasParking          bool `json:"hasParking" db:"has_parking"`
	IsPetFriendly       bool `json:"isPetFriendly" db:"is_pet_friendly"`
	HasDessert          bool `json:"hasDessert" db:"has_dessert"`
}

// CafeInfo is the owner-editable part of a cafe.
type CafeInfo struct {
	Name          string
	Address       string
	ContactNumber string
	Notice        string
	OpenTime      string
	CloseTime     string
	Facilities    Facilities
}

type Cafe struct {
	ID            string `json:"id"`
	OwnerID       string `json:"ownerId"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contactNumber"`
	Notice        string `json:"notice"`
	Image         string `json:"image"`
	OpenTime      string `json:"openTime"`
	CloseTime     string `json:"closeTime"`
	Facilities
	Rating        float64   `json:"rating"`
	RatingStale   bool      `json:"ratingStale"`
	BookmarkCount int       `json:"bookmarkCount"`
	PostCount     int       `json:"postCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ValidateOwner fails with NOT_OWNER unless memberID owns the cafe.
func (c *Cafe) ValidateOwner(memberID string) error {
	if memberID == "" || c.OwnerID != memberID {
		return apperr.ErrNotOwner
	}
	return nil
}

// Apply overwrites the owner-editable fields. Derived fields are untouched.
func (c *Cafe) Apply(info CafeInfo) {
	c.Name = info.Name
	c.Address = info.Address
	c.ContactNumber = info.ContactNumber
	c.Notice = info.Notice
	c.OpenTime = info.OpenTime
	c.CloseTime = info.CloseTime
	c.Facilities = info.Facilities
}

type Post struct {
	ID        string    `json:"id"`
	CafeID    string    `json:"cafeId"`
	MemberID  string    `json:"memberId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateAuthor fails with NOT_AUTHOR unless memberID wrote the post.
func (p *Post) ValidateAuthor(memberID string) error {
	if memberID == "" || p.MemberID != memberID {
		return apperr.ErrNotAuthor
	}
	return nil
}

type PostBookmark struct {
	MemberID  string    `json:"memberId"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CafeBookmark struct {
	MemberID  string    `json:"memberId"`
	CafeID    string    `json:"cafeId"`
	CreatedAt time.Time `json:"createdAt"`
}
