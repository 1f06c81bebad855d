package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaoGuilhermeTP/fatex/internal/api"
	"github.com/JoaoGuilhermeTP/fatex/internal/api/handler"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/service"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
)

const (
	testDomain  = "@fatec.sp.gov.br"
	testBaseURL = "http://localhost:8080"
)

func TestMain(m *testing.M) {
	security.InitJWT([]byte("test-secret"))
	m.Run()
}

// --- in-memory collaborators ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]*model.User{}} }

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("duplicate user: %w", common.ErrConflict)
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username })
}

func (r *memUserRepo) findBy(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return common.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

// memPostRepo resolves Author from the user store on reads, mirroring
// the join the SQL implementation does.
type memPostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
	users *memUserRepo
}

func newMemPostRepo(users *memUserRepo) *memPostRepo {
	return &memPostRepo{posts: map[string]*model.Post{}, users: users}
}

func (r *memPostRepo) withAuthor(p model.Post) model.Post {
	if u, err := r.users.FindByID(context.Background(), p.UserID); err == nil {
		p.Author = u.Username
	}
	return p
}

func (r *memPostRepo) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *post
	r.posts[post.ID] = &clone
	return nil
}

func (r *memPostRepo) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		clone := r.withAuthor(*p)
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

func (r *memPostRepo) Update(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Title, stored.Slug, stored.Content = post.Title, post.Slug, post.Content
	return nil
}

func (r *memPostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *memPostRepo) List(_ context.Context, limit, offset int) ([]model.Post, error) {
	return r.page(func(*model.Post) bool { return true }, limit, offset), nil
}

func (r *memPostRepo) ListByUserID(_ context.Context, userID string, limit, offset int) ([]model.Post, error) {
	return r.page(func(p *model.Post) bool { return p.UserID == userID }, limit, offset), nil
}

func (r *memPostRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts), nil
}

func (r *memPostRepo) CountByUserID(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memPostRepo) page(match func(*model.Post) bool, limit, offset int) []model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []model.Post{}
	for _, p := range r.posts {
		if match(p) {
			all = append(all, r.withAuthor(*p))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DatePosted.After(all[j].DatePosted) })
	if offset >= len(all) {
		return []model.Post{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

type memMailer struct {
	mu      sync.Mutex
	lastTo  string
	lastURL string
}

func (m *memMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo, m.lastURL = to, resetURL
	return nil
}

type memAvatarSaver struct{ name string }

func (s *memAvatarSaver) Save(_ *multipart.FileHeader) (string, error) { return s.name, nil }

// --- test environment ---

type testEnv struct {
	router http.Handler
	users  *memUserRepo
	posts  *memPostRepo
	mailer *memMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newMemUserRepo()
	posts := newMemPostRepo(users)
	mailer := &memMailer{}
	flashes := flash.NewMemStore()

	authService := service.NewAuthService(users, mailer, 30*time.Minute, testBaseURL)
	accountService := service.NewAccountService(users, &memAvatarSaver{name: "f00dcafe.png"})
	postService := service.NewPostService(posts, users)

	authHandler := handler.NewAuthHandler(authService, users, flashes, testDomain, time.Hour, 30*24*time.Hour)
	accountHandler := handler.NewAccountHandler(accountService, users, flashes)
	postHandler := handler.NewPostHandler(postService, flashes)

	router := api.NewRouter(authHandler, accountHandler, postHandler, t.TempDir())
	return &testEnv{router: router, users: users, posts: posts, mailer: mailer}
}

func (e *testEnv) do(t *testing.T, method, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if values != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, "register failed: %s", rec.Body.String())
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, "login failed: %s", rec.Body.String())
	session := cookieNamed(rec, "jwt")
	require.NotNil(t, session, "login must set the session cookie")
	return session
}

type feedResponse struct {
	Posts    []model.Post `json:"posts"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// --- flows ---

func TestRegisterLoginPostFlow(t *testing.T) {
	e := newTestEnv(t)
	started := time.Now().UTC()

	e.register(t, "alice", "alice@fatec.sp.gov.br", "pw123")

	t.Run("duplicate username is a field error", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/register", url.Values{
			"username":         {"alice"},
			"email":            {"other@fatec.sp.gov.br"},
			"password":         {"pw"},
			"confirm_password": {"pw"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp handler.ValidationResponse
		decodeJSON(t, rec, &resp)
		assert.Contains(t, resp.Errors, "username")
		assert.Equal(t, "other@fatec.sp.gov.br", resp.Values["email"], "entered values are retained")
	})

	t.Run("wrong password is generically rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"alice@fatec.sp.gov.br"},
			"password": {"wrongpw"},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password is wrong")
		assert.Contains(t, rec.Body.String(), "Login unsuccessful")
		assert.Nil(t, cookieNamed(rec, "jwt"), "failed login must not establish a session")
	})

	session := e.login(t, "alice@fatec.sp.gov.br", "pw123")

	t.Run("new post lands on top of the feed", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/post/new", url.Values{
			"title":   {"Hi"},
			"content": {"World"},
		}, session)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/home", rec.Header().Get("Location"))

		home := e.do(t, http.MethodGet, "/home", nil, session)
		require.Equal(t, http.StatusOK, home.Code)
		var feed feedResponse
		decodeJSON(t, home, &feed)
		assert.Equal(t, 15, feed.PageSize)
		require.NotEmpty(t, feed.Posts)
		assert.Equal(t, "Hi", feed.Posts[0].Title)
		assert.Equal(t, "alice", feed.Posts[0].Author)
		assert.False(t, feed.Posts[0].DatePosted.Before(started), "timestamp must be fresh")
	})

	t.Run("signed-in visitor cannot re-register", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/register", nil, session)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	})
}

func TestPostOwnershipOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@fatec.sp.gov.br", "pw123")
	e.register(t, "bob", "bob@fatec.sp.gov.br", "pw456")
	alice := e.login(t, "alice@fatec.sp.gov.br", "pw123")
	bob := e.login(t, "bob@fatec.sp.gov.br", "pw456")

	e.do(t, http.MethodPost, "/post/new", url.Values{"title": {"Hi"}, "content": {"World"}}, alice)

	home := e.do(t, http.MethodGet, "/home", nil, alice)
	var feed feedResponse
	decodeJSON(t, home, &feed)
	require.NotEmpty(t, feed.Posts)
	postID := feed.Posts[0].ID

	t.Run("bob cannot delete alice's post", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/post/"+postID+"/delete", url.Values{}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		still := e.do(t, http.MethodGet, "/post/"+postID, nil, bob)
		assert.Equal(t, http.StatusOK, still.Code, "post must survive the forbidden attempt")
	})

	t.Run("bob cannot edit alice's post", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/post/"+postID+"/update",
			url.Values{"title": {"Hijacked"}, "content": {"x"}}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing post is 404, not 403", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/post/no-such-id/delete", url.Values{}, bob)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous caller is redirected to login first", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/post/"+postID+"/delete", url.Values{})
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "/login?next=")
	})
}

func TestUserFeedPageSize(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@fatec.sp.gov.br", "pw123")
	alice := e.login(t, "alice@fatec.sp.gov.br", "pw123")

	for i := 0; i < 7; i++ {
		e.posts.Create(context.Background(), &model.Post{
			ID:         fmt.Sprintf("p%d", i),
			UserID:     mustFindUser(t, e, "alice").ID,
			Title:      fmt.Sprintf("Post %d", i),
			Content:    "c",
			DatePosted: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
	}

	rec := e.do(t, http.MethodGet, "/user/alice", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Feed feedResponse `json:"feed"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 5, resp.Feed.PageSize)
	assert.Len(t, resp.Feed.Posts, 5)
	assert.Equal(t, 7, resp.Feed.Total)

	t.Run("unknown username is not found", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/user/nobody", nil, alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/user/alice?page=99", nil, alice)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Feed feedResponse `json:"feed"`
		}
		decodeJSON(t, rec, &resp)
		assert.Empty(t, resp.Feed.Posts)
	})
}

func TestAccountUpdateFlow(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@fatec.sp.gov.br", "pw123")
	session := e.login(t, "alice@fatec.sp.gov.br", "pw123")

	t.Run("anonymous account view redirects with next", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/account", nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?next=%2Faccount", rec.Header().Get("Location"))
	})

	rec := e.do(t, http.MethodGet, "/account", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/profile_pics/default.jpg")

	rec = e.do(t, http.MethodPost, "/account", url.Values{
		"username": {"alice2"},
		"email":    {"alice2@fatec.sp.gov.br"},
	}, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/account", rec.Header().Get("Location"))

	updated := mustFindUser(t, e, "alice2")
	assert.Equal(t, "alice2@fatec.sp.gov.br", updated.Email)
}

func TestPasswordResetFlow(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "alice@fatec.sp.gov.br", "pw123")

	t.Run("unknown email is a field error", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/reset_password", url.Values{"email": {"ghost@fatec.sp.gov.br"}})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp handler.ValidationResponse
		decodeJSON(t, rec, &resp)
		assert.Contains(t, resp.Errors, "email")
	})

	rec := e.do(t, http.MethodPost, "/reset_password", url.Values{"email": {"alice@fatec.sp.gov.br"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.NotEmpty(t, e.mailer.lastURL)

	token := strings.TrimPrefix(e.mailer.lastURL, testBaseURL+"/reset_password/")

	t.Run("tampered token bounces back to the request page", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/reset_password/"+token[:len(token)-2]+"xx", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/reset_password", rec.Header().Get("Location"))
	})

	rec = e.do(t, http.MethodGet, "/reset_password/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/reset_password/"+token, url.Values{
		"password":         {"newpw"},
		"confirm_password": {"newpw"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	// Old password is gone, the new one works.
	failed := e.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"alice@fatec.sp.gov.br"},
		"password": {"pw123"},
	})
	assert.Equal(t, http.StatusUnauthorized, failed.Code)
	e.login(t, "alice@fatec.sp.gov.br", "newpw")
}

func TestFlashMessageShownOnce(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/register", url.Values{
		"username":         {"alice"},
		"email":            {"alice@fatec.sp.gov.br"},
		"password":         {"pw123"},
		"confirm_password": {"pw123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flashCookie := cookieNamed(rec, "flash_session")
	require.NotNil(t, flashCookie)

	first := e.do(t, http.MethodGet, "/login", nil, flashCookie)
	assert.Contains(t, first.Body.String(), "Your account has been created")

	second := e.do(t, http.MethodGet, "/login", nil, flashCookie)
	assert.NotContains(t, second.Body.String(), "Your account has been created")
}

func mustFindUser(t *testing.T, e *testEnv, username string) *model.User {
	t.Helper()
	u, err := e.users.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}
