package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/models"
)

// ---- mock implementations ----

type mockPostCommander struct {
	createFn func(cqrs.CreatePostCommand) (*models.Post, error)
	updateFn func(cqrs.UpdatePostCommand) (*models.Post, error)
	deleteFn func(cqrs.DeletePostCommand) (string, error)
}

func (m *mockPostCommander) CreatePost(_ context.Context, cmd cqrs.CreatePostCommand) (*models.Post, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPostCommander) UpdatePost(_ context.Context, cmd cqrs.UpdatePostCommand) (*models.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPostCommander) DeletePost(_ context.Context, cmd cqrs.DeletePostCommand) (string, error) {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

type mockPostQuerier struct {
	getFn      func(cqrs.GetPostQuery) (*models.PostView, error)
	listFn     func(cqrs.ListPostsQuery) (*models.PostPage, error)
	listCafeFn func(cqrs.ListCafePostsQuery) (*models.PostPage, error)
}

func (m *mockPostQuerier) GetPost(_ context.Context, q cqrs.GetPostQuery) (*models.PostView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPostQuerier) ListPosts(_ context.Context, q cqrs.ListPostsQuery) (*models.PostPage, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPostQuerier) ListCafePosts(_ context.Context, q cqrs.ListCafePostsQuery) (*models.PostPage, error) {
	if m.listCafeFn != nil {
		return m.listCafeFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

type mockBookmarkCommander struct {
	createFn func(cqrs.PostBookmarkCommand) (bool, error)
	deleteFn func(cqrs.PostBookmarkCommand) (bool, error)
}

func (m *mockBookmarkCommander) CreatePostBookmark(_ context.Context, cmd cqrs.PostBookmarkCommand) (bool, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return false, fmt.Errorf("not configured")
}
func (m *mockBookmarkCommander) DeletePostBookmark(_ context.Context, cmd cqrs.PostBookmarkCommand) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return false, fmt.Errorf("not configured")
}

// ---- helpers ----

func newPostTestRouter(cmds PostCommander, qrys PostQuerier, bookmarks BookmarkCommander, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := fakeAuthUser(authUserID)
	cafes := NewCafeHandler(&mockCafeCommander{}, &mockCafeQuerier{})
	RegisterRoutes(r, cafes, NewPostHandler(cmds, qrys, bookmarks), auth, auth)
	return r
}

// ---- CreatePost ----

func TestPostHandler_CreatePost(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreatePostCommand) (*models.Post, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "success",
			body: map[string]interface{}{"title": "Great flat white", "content": "Would come back", "rating": 5},
			createFn: func(cmd cqrs.CreatePostCommand) (*models.Post, error) {
				if cmd.CafeID != "caf-001" || cmd.Rating != 5 || cmd.ActorID != "mbr-001" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return &models.Post{ID: "pst-001", CafeID: cmd.CafeID}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rating above five",
			body:           map[string]interface{}{"title": "t", "content": "c", "rating": 6},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   string(apperr.CodeValidationFailed),
		},
		{
			name:           "rating missing",
			body:           map[string]interface{}{"title": "t", "content": "c"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   string(apperr.CodeValidationFailed),
		},
		{
			name: "unknown cafe",
			body: map[string]interface{}{"title": "t", "content": "c", "rating": 3},
			createFn: func(cqrs.CreatePostCommand) (*models.Post, error) {
				return nil, apperr.ErrCafeNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   string(apperr.CodeCafeNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newPostTestRouter(&mockPostCommander{createFn: tt.createFn}, &mockPostQuerier{}, &mockBookmarkCommander{}, "mbr-001")
			w := doRequest(router, http.MethodPost, "/api/posts/caf-001", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode != "" {
				if got := errorCode(t, w); got != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, got)
				}
				return
			}
			var id string
			decodeData(t, w, &id)
			if id != "pst-001" {
				t.Errorf("expected post id pst-001, got %s", id)
			}
		})
	}
}

func TestPostHandler_CreatePostMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("dto", `{"title":"Latte art","content":"Lovely","rating":4}`)
	part, _ := mw.CreateFormFile("postImage", "latte.jpg")
	_, _ = part.Write([]byte("not really a jpeg"))
	_ = mw.Close()

	var got cqrs.CreatePostCommand
	cmds := &mockPostCommander{createFn: func(cmd cqrs.CreatePostCommand) (*models.Post, error) {
		got = cmd
		return &models.Post{ID: "pst-002"}, nil
	}}
	router := newPostTestRouter(cmds, &mockPostQuerier{}, &mockBookmarkCommander{}, "mbr-001")

	req := httptest.NewRequest(http.MethodPost, "/api/posts/caf-001", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if got.Title != "Latte art" || got.Rating != 4 {
		t.Errorf("dto part not bound: %+v", got)
	}
}

func TestPostHandler_UpdatePost(t *testing.T) {
	tests := []struct {
		name           string
		updateFn       func(cqrs.UpdatePostCommand) (*models.Post, error)
		expectedStatus int
	}{
		{
			name: "success",
			updateFn: func(cmd cqrs.UpdatePostCommand) (*models.Post, error) {
				return &models.Post{ID: cmd.PostID}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not the author",
			updateFn: func(cqrs.UpdatePostCommand) (*models.Post, error) {
				return nil, apperr.ErrNotAuthor
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unknown post",
			updateFn: func(cqrs.UpdatePostCommand) (*models.Post, error) {
				return nil, apperr.ErrPostNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newPostTestRouter(&mockPostCommander{updateFn: tt.updateFn}, &mockPostQuerier{}, &mockBookmarkCommander{}, "mbr-001")
			body := map[string]interface{}{"title": "Edited", "content": "Still good", "rating": 3}
			w := doRequest(router, http.MethodPatch, "/api/posts/pst-001", body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestPostHandler_DeletePostReturnsCafeID(t *testing.T) {
	cmds := &mockPostCommander{deleteFn: func(cmd cqrs.DeletePostCommand) (string, error) {
		if cmd.PostID != "pst-001" {
			return "", apperr.ErrPostNotFound
		}
		return "caf-001", nil
	}}
	router := newPostTestRouter(cmds, &mockPostQuerier{}, &mockBookmarkCommander{}, "mbr-001")

	w := doRequest(router, http.MethodDelete, "/api/posts/pst-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var cafeID string
	decodeData(t, w, &cafeID)
	if cafeID != "caf-001" {
		t.Errorf("expected caf-001, got %s", cafeID)
	}

	w = doRequest(router, http.MethodDelete, "/api/posts/pst-404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPostHandler_GetAndList(t *testing.T) {
	qrys := &mockPostQuerier{
		getFn: func(q cqrs.GetPostQuery) (*models.PostView, error) {
			return &models.PostView{ID: q.PostID, Rating: 4, IsBookmarked: q.ViewerID != ""}, nil
		},
		listFn: func(q cqrs.ListPostsQuery) (*models.PostPage, error) {
			return &models.PostPage{PageInfo: models.NewPageInfo(q.Page, 0)}, nil
		},
		listCafeFn: func(q cqrs.ListCafePostsQuery) (*models.PostPage, error) {
			if q.CafeID != "caf-001" {
				return nil, apperr.ErrCafeNotFound
			}
			return &models.PostPage{
				Content:  []models.PostView{{ID: "pst-001", CafeID: q.CafeID}},
				PageInfo: models.NewPageInfo(q.Page, 1),
			}, nil
		},
	}
	router := newPostTestRouter(&mockPostCommander{}, qrys, &mockBookmarkCommander{}, "mbr-001")

	w := doRequest(router, http.MethodGet, "/api/posts/pst-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var view models.PostView
	decodeData(t, w, &view)
	if !view.IsBookmarked {
		t.Errorf("expected viewer-relative bookmark flag")
	}

	w = doRequest(router, http.MethodGet, "/api/posts?page=3&size=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list models.PostPage
	decodeData(t, w, &list)
	if list.PageInfo.Page != 3 || list.PageInfo.Size != 10 {
		t.Errorf("unexpected page info %+v", list.PageInfo)
	}

	w = doRequest(router, http.MethodGet, "/api/cafes/caf-001/posts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/api/cafes/caf-404/posts", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/posts?size=500", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized page, got %d", w.Code)
	}
}

func TestPostHandler_Bookmarks(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		createFn       func(cqrs.PostBookmarkCommand) (bool, error)
		expectedStatus int
	}{
		{
			name:           "new bookmark",
			method:         http.MethodPost,
			createFn:       func(cqrs.PostBookmarkCommand) (bool, error) { return true, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "existing bookmark",
			method:         http.MethodPost,
			createFn:       func(cqrs.PostBookmarkCommand) (bool, error) { return false, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown post",
			method:         http.MethodPost,
			createFn:       func(cqrs.PostBookmarkCommand) (bool, error) { return false, apperr.ErrPostNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "remove",
			method:         http.MethodDelete,
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookmarks := &mockBookmarkCommander{
				createFn: tt.createFn,
				deleteFn: func(cqrs.PostBookmarkCommand) (bool, error) { return false, nil },
			}
			router := newPostTestRouter(&mockPostCommander{}, &mockPostQuerier{}, bookmarks, "mbr-001")
			w := doRequest(router, tt.method, "/api/posts/pst-001/bookmark", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
