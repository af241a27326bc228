package command

import (
	"context"
	"sort"
	"sync"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
)

// ---- in-memory stores ----

type fakeStore struct {
	mu            sync.Mutex
	cafes         map[string]*models.Cafe
	posts         map[string]*models.Post
	cafeBookmarks map[[2]string]bool
	postBookmarks map[[2]string]bool
	recalculated  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cafes:         map[string]*models.Cafe{},
		posts:         map[string]*models.Post{},
		cafeBookmarks: map[[2]string]bool{},
		postBookmarks: map[[2]string]bool{},
	}
}

func (s *fakeStore) Create(_ context.Context, cafe *models.Cafe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cafe
	s.cafes[cafe.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, cafeID string) (*models.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cafes[cafeID]
	if !ok {
		return nil, apperr.ErrCafeNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, cafe *models.Cafe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cafes[cafe.ID]; !ok {
		return apperr.ErrCafeNotFound
	}
	cp := *cafe
	s.cafes[cafe.ID] = &cp
	return nil
}

func (s *fakeStore) Delete(_ context.Context, cafeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cafes[cafeID]; !ok {
		return apperr.ErrCafeNotFound
	}
	delete(s.cafes, cafeID)
	for id, p := range s.posts {
		if p.CafeID == cafeID {
			delete(s.posts, id)
		}
	}
	return nil
}

func (s *fakeStore) RecalculateRating(_ context.Context, cafeID string) (*models.CafeRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recalculated = append(s.recalculated, cafeID)
	return s.applyRatingLocked(cafeID)
}

func (s *fakeStore) applyRatingLocked(cafeID string) (*models.CafeRating, error) {
	cafe, ok := s.cafes[cafeID]
	if !ok {
		return nil, apperr.ErrCafeNotFound
	}
	var ratings []int
	for _, p := range s.posts {
		if p.CafeID == cafeID {
			ratings = append(ratings, p.Rating)
		}
	}
	sort.Ints(ratings)
	cafe.Rating = models.AggregateRating(ratings)
	cafe.PostCount = len(ratings)
	cafe.RatingStale = false
	return &models.CafeRating{CafeID: cafeID, Rating: cafe.Rating, PostCount: cafe.PostCount}, nil
}

func (s *fakeStore) AddBookmark(_ context.Context, memberID, cafeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cafe, ok := s.cafes[cafeID]
	if !ok {
		return false, apperr.ErrCafeNotFound
	}
	key := [2]string{memberID, cafeID}
	if s.cafeBookmarks[key] {
		return false, nil
	}
	s.cafeBookmarks[key] = true
	cafe.BookmarkCount++
	return true, nil
}

func (s *fakeStore) RemoveBookmark(_ context.Context, memberID, cafeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{memberID, cafeID}
	if !s.cafeBookmarks[key] {
		return false, nil
	}
	delete(s.cafeBookmarks, key)
	if cafe, ok := s.cafes[cafeID]; ok && cafe.BookmarkCount > 0 {
		cafe.BookmarkCount--
	}
	return true, nil
}

// fakePostStore shares fakeStore's tables so rating recomputes see posts.
type fakePostStore struct{ *fakeStore }

func (s fakePostStore) GetByID(_ context.Context, postID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, apperr.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s fakePostStore) CreateWithRating(_ context.Context, post *models.Post) (*models.CafeRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cafes[post.CafeID]; !ok {
		return nil, apperr.ErrCafeNotFound
	}
	cp := *post
	s.posts[post.ID] = &cp
	return s.applyRatingLocked(post.CafeID)
}

func (s fakePostStore) UpdateWithRating(_ context.Context, post *models.Post) (*models.CafeRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[post.ID]; !ok {
		return nil, apperr.ErrPostNotFound
	}
	cp := *post
	s.posts[post.ID] = &cp
	return s.applyRatingLocked(post.CafeID)
}

func (s fakePostStore) DeleteWithRating(_ context.Context, postID, cafeID string) (*models.CafeRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, apperr.ErrPostNotFound
	}
	delete(s.posts, postID)
	return s.applyRatingLocked(cafeID)
}

func (s fakePostStore) Add(_ context.Context, memberID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return false, apperr.ErrPostNotFound
	}
	key := [2]string{memberID, postID}
	if s.postBookmarks[key] {
		return false, nil
	}
	s.postBookmarks[key] = true
	return true, nil
}

func (s fakePostStore) Remove(_ context.Context, memberID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{memberID, postID}
	if !s.postBookmarks[key] {
		return false, nil
	}
	delete(s.postBookmarks, key)
	return true, nil
}

type fakeMembers map[string]*models.Member

func (m fakeMembers) GetByID(_ context.Context, memberID string) (*models.Member, error) {
	member, ok := m[memberID]
	if !ok {
		return nil, apperr.ErrMemberNotFound
	}
	return member, nil
}

type fakeCache struct{ invalidated []string }

func (c *fakeCache) InvalidateDetail(_ context.Context, cafeID string) {
	c.invalidated = append(c.invalidated, cafeID)
}

type publishedEvent struct {
	Stream string
	Type   string
	Data   any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.events = append(p.events, publishedEvent{Stream: stream, Type: eventType, Data: data})
	return p.err
}

func (p *fakePublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
