package cqrs

import "github.com/cafein/cafein-server/shared/models"

// ---------- Member commands ----------

type SignUpCommand struct {
	Email       string
	DisplayName string
	Password    string
	Image       string
	IsPrivacy   bool
	Roles       []string
}

type UpdateMemberCommand struct {
	MemberID    string
	DisplayName string
	Image       string
	IsPrivacy   bool
}

type DeleteMemberCommand struct {
	MemberID string
}

// ---------- Cafe commands ----------

type CreateCafeCommand struct {
	ActorID string
	Info    models.CafeInfo
}

type UpdateCafeCommand struct {
	ActorID string
	CafeID  string
	Info    models.CafeInfo
}

type DeleteCafeCommand struct {
	ActorID  string
	CafeID   string
	Password string
}

type CafeBookmarkCommand struct {
	ActorID string
	CafeID  string
}

// ---------- Post commands ----------

type CreatePostCommand struct {
	ActorID string
	CafeID  string
	Title   string
	Content string
	Rating  int
}

type UpdatePostCommand struct {
	ActorID string
	PostID  string
	Title   string
	Content string
	Rating  int
}

type DeletePostCommand struct {
	ActorID string
	PostID  string
}

type PostBookmarkCommand struct {
	ActorID string
	PostID  string
}

// ---------- Auth commands ----------

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
