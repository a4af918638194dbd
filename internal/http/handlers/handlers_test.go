package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/http/middleware"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/services"
)

// ---------- stubs ----------

type stubAuth struct {
	users map[string]*domain.User // by token
}

func (s stubAuth) Register(_ context.Context, username string) (*domain.User, error) {
	if len([]rune(username)) < 2 {
		return nil, services.ErrInvalidUsername
	}
	return &domain.User{ID: "u-new", Username: username, Token: "NEW123"}, nil
}

func (s stubAuth) Login(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, services.ErrInvalidToken
}

func (s stubAuth) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	return s.Login(ctx, token)
}

type stubElements struct {
	discovered []domain.Element
	latest     *time.Time
	listCalls  int
}

func (s *stubElements) Base(context.Context) ([]domain.Element, error) {
	return []domain.Element{{ID: "base_fire", NameEN: "Fire", IsBase: true}}, nil
}

func (s *stubElements) Details(_ context.Context, id string) (*services.ElementDetails, error) {
	if id != "steam" {
		return nil, services.ErrElementNotFound
	}
	return &services.ElementDetails{Element: &domain.Element{ID: "steam", NameEN: "Steam"}}, nil
}

func (s *stubElements) Discovered(context.Context, string) ([]domain.Element, error) {
	s.listCalls++
	return s.discovered, nil
}

func (s *stubElements) DiscoveredStats(context.Context, string) (int64, *time.Time, error) {
	return int64(len(s.discovered)), s.latest, nil
}

type stubCraft struct {
	err  error
	seen [2]string
}

func (s *stubCraft) Craft(_ context.Context, u *domain.User, a, b string) (*services.CraftResult, error) {
	s.seen = [2]string{a, b}
	if s.err != nil {
		return nil, s.err
	}
	return &services.CraftResult{Element: &domain.Element{ID: "steam", NameEN: "Steam", DiscovererName: u.Username}, IsNew: true}, nil
}

type stubPresets struct{ err error }

func (s stubPresets) Reload(context.Context) (*services.LoadStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.LoadStats{BaseElements: 5, Recipes: 2}, nil
}

type stubGuess struct {
	existing *domain.GuessQuestion
	genErr   error
}

func (s *stubGuess) GetOrCreate(_ context.Context, seed, _ string) (*domain.GuessQuestion, error) {
	if seed != "2025-06-01" {
		return nil, services.ErrQuestionNotGenerated
	}
	return &domain.GuessQuestion{ID: 7, SeedString: seed}, nil
}

func (s *stubGuess) View(_ context.Context, q *domain.GuessQuestion, _ string) (*services.QuestionView, error) {
	return &services.QuestionView{Question: services.PublicQuestion{ID: q.ID, SeedString: q.SeedString, Title: "□□"}}, nil
}

func (s *stubGuess) Submit(_ context.Context, _ string, qid uint, ch string) (*services.SubmitResult, error) {
	if qid != 7 {
		return nil, services.ErrQuestionNotFound
	}
	if ch == "熊" {
		return nil, services.ErrAlreadyGuessed
	}
	return &services.SubmitResult{GuessOutcome: services.GuessOutcome{Character: ch, IsInTitle: true, TitlePositions: []int{0}}}, nil
}

func (s *stubGuess) BatchSubmit(_ context.Context, _ string, _ uint, chars []string) (*services.BatchResult, error) {
	if len(chars) == 0 {
		return nil, services.ErrEmptyGuessBatch
	}
	out := &services.BatchResult{IsCompleted: true}
	for _, ch := range chars {
		out.Results = append(out.Results, services.GuessOutcome{Character: ch})
	}
	return out, nil
}

func (s *stubGuess) History(context.Context, string) ([]repo.HistoryRow, error) {
	return []repo.HistoryRow{{ID: 7, SeedString: "2025-06-01", Attempts: 3}}, nil
}

func (s *stubGuess) Generate(_ context.Context, seed string) (*domain.GuessQuestion, error) {
	if s.existing != nil && s.existing.SeedString == seed {
		return s.existing, services.ErrQuestionExists
	}
	if s.genErr != nil {
		return nil, s.genErr
	}
	return &domain.GuessQuestion{ID: 9, SeedString: seed}, nil
}

func (s *stubGuess) BatchGenerate(_ context.Context, seeds []string) *services.BatchGenerateReport {
	r := &services.BatchGenerateReport{}
	for _, seed := range seeds {
		r.Success = append(r.Success, services.GeneratedSeed{SeedString: seed})
	}
	return r
}

func (s *stubGuess) ListQuestions(_ context.Context, page, pageSize int) ([]repo.QuestionStats, int64, error) {
	return []repo.QuestionStats{{}}, 41, nil
}

// ---------- harness ----------

type fixture struct {
	r        *gin.Engine
	elements *stubElements
	craft    *stubCraft
	guess    *stubGuess
	presets  *stubPresets
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := stubAuth{users: map[string]*domain.User{"ALICE1": {ID: "u-1", Username: "alice", Token: "ALICE1"}}}
	f := &fixture{
		elements: &stubElements{},
		craft:    &stubCraft{},
		guess:    &stubGuess{},
		presets:  &stubPresets{},
	}
	h := New(Deps{
		Auth:     auth,
		Elements: f.elements,
		Craft:    f.craft,
		Presets:  f.presets,
		Guess:    f.guess,
		Game:     GameConfig{LanguageMode: domain.LanguageEN, CraftOrderMatters: true},
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/config", h.Config)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/elements/base", h.BaseElements)
	r.GET("/elements/discovered", middleware.Auth(auth), h.DiscoveredElements)
	r.GET("/elements/:id/details", h.ElementDetails)
	r.POST("/craft", middleware.Auth(auth), h.Craft)
	g := r.Group("/guess", middleware.Auth(auth))
	g.GET("/history", h.GuessHistory)
	g.GET("/:"+GuessParam, h.GetQuestion)
	g.POST("/:"+GuessParam+"/submit", h.SubmitGuess)
	g.POST("/:"+GuessParam+"/batch-submit", h.BatchSubmitGuess)
	r.POST("/admin/reload", h.Reload)
	r.POST("/admin/guess/generate", h.GenerateQuestion)
	r.POST("/admin/guess/batch-generate", h.BatchGenerateQuestions)
	r.GET("/admin/guess/questions", h.ListQuestions)
	// Unauthenticated route to exercise currentUser's own 401.
	r.GET("/noauth/history", h.GuessHistory)

	f.r = r
	return f
}

func (f *fixture) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

var alice = map[string]string{"Authorization": "Bearer ALICE1"}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

// ---------- tests ----------

func TestConfig(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/config", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"languageMode":"en","craftOrderMatters":true}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/register", RegisterRequest{Username: "bob"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":{"id":"u-new","username":"bob","token":"NEW123"}}`, w.Body.String())

	w = f.do(http.MethodPost, "/register", RegisterRequest{Username: "b"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeBadRequest, decodeErr(t, w).Code)

	w = f.do(http.MethodPost, "/register", "{not json", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/login", LoginRequest{Token: "ALICE1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	w = f.do(http.MethodPost, "/login", LoginRequest{Token: "NOPE00"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ErrCodeUnauthorized, decodeErr(t, w).Code)
}

func TestElements(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/elements/base", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"base_fire"`)

	w = f.do(http.MethodGet, "/elements/steam/details", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"discovery":null`)

	w = f.do(http.MethodGet, "/elements/ghost/details", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeNotFound, decodeErr(t, w).Code)
}

func TestDiscoveredElements_ETag(t *testing.T) {
	f := newFixture(t)
	ts := time.Unix(1719830000, 0)
	f.elements.discovered = []domain.Element{{ID: "steam"}}
	f.elements.latest = &ts

	w := f.do(http.MethodGet, "/elements/discovered", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/elements/discovered", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, `W/"discovered:u-1:1:1719830000"`, etag)

	hdr := map[string]string{"Authorization": "Bearer ALICE1", "If-None-Match": etag}
	w = f.do(http.MethodGet, "/elements/discovered", nil, hdr)
	require.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, 1, f.elements.listCalls)
}

func TestCraft(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/craft", CraftRequest{FirstElementID: "base_water", SecondElementID: "base_fire"}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsNew)
	assert.Equal(t, "alice", resp.Element.DiscovererName)
	assert.Equal(t, [2]string{"base_water", "base_fire"}, f.craft.seen)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrMissingElementIDs, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrElementNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrCraftFailed, http.StatusInternalServerError, ErrCodeCraftFailed},
		{errors.New("db gone"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		f.craft.err = tc.err
		w := f.do(http.MethodPost, "/craft", CraftRequest{FirstElementID: "a", SecondElementID: "b"}, alice)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, decodeErr(t, w).Code)
	}
}

func TestGuessRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/guess/2025-06-01", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seedString":"2025-06-01"`)

	w = f.do(http.MethodGet, "/guess/1999-01-01", nil, alice)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.ErrQuestionNotGenerated.Error(), decodeErr(t, w).Message)

	w = f.do(http.MethodPost, "/guess/7/submit", SubmitRequest{Character: "猫"}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"titlePositions":[0]`)

	w = f.do(http.MethodPost, "/guess/7/submit", SubmitRequest{Character: "熊"}, alice)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeAlreadyGuessed, decodeErr(t, w).Code)

	w = f.do(http.MethodPost, "/guess/8/submit", SubmitRequest{Character: "猫"}, alice)
	require.Equal(t, http.StatusNotFound, w.Code)

	for _, bad := range []string{"abc", "0", "-1"} {
		w = f.do(http.MethodPost, "/guess/"+bad+"/submit", SubmitRequest{Character: "猫"}, alice)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	w = f.do(http.MethodPost, "/guess/7/batch-submit", BatchSubmitRequest{Characters: []string{"熊", "猫"}}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isCompleted":true`)

	w = f.do(http.MethodPost, "/guess/7/batch-submit", BatchSubmitRequest{}, alice)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/guess/7/batch-submit", `{"characters":"熊"}`, alice)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/guess/history", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"attempts":3`)

	w = f.do(http.MethodGet, "/noauth/history", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminReload(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/admin/reload", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"baseElements":5`)

	f.presets.err = errors.New("presets.json: unexpected EOF")
	w = f.do(http.MethodPost, "/admin/reload", nil, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeErr(t, w)
	assert.Equal(t, ErrCodeReloadFailed, e.Code)
	assert.NotContains(t, e.Message, "EOF")
}

func TestAdminGenerate(t *testing.T) {
	f := newFixture(t)
	f.guess.existing = &domain.GuessQuestion{ID: 3, SeedString: "2025-06-02"}

	w := f.do(http.MethodPost, "/admin/guess/generate", GenerateRequest{SeedString: " 2025-06-03 "}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gen GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))
	assert.Equal(t, "2025-06-03", gen.Question.SeedString)

	w = f.do(http.MethodPost, "/admin/guess/generate", GenerateRequest{SeedString: "2025-06-02"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var exists QuestionExistsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exists))
	assert.Equal(t, ErrCodeQuestionExists, exists.Code)
	require.NotNil(t, exists.Question)
	assert.Equal(t, uint(3), exists.Question.ID)

	w = f.do(http.MethodPost, "/admin/guess/generate", GenerateRequest{SeedString: "  "}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	f.guess.genErr = services.ErrWordGeneration
	w = f.do(http.MethodPost, "/admin/guess/generate", GenerateRequest{SeedString: "2025-06-04"}, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrCodeGenerateFailed, decodeErr(t, w).Code)
}

func TestAdminBatchGenerateAndList(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/admin/guess/batch-generate", BatchGenerateRequest{SeedStrings: []string{"a", "b"}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var batch BatchGenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, "批量生成完成：成功 2，失败 0，跳过 0", batch.Message)
	assert.Len(t, batch.Results.Success, 2)

	w = f.do(http.MethodPost, "/admin/guess/batch-generate", BatchGenerateRequest{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/admin/guess/questions?page=2&page_size=20", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListQuestionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, Pagination{Page: 2, PageSize: 20, Total: 41, TotalPages: 3, HasNext: true}, list.Pagination)
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		q          string
		page, size int
	}{
		{"", 1, 20},
		{"?page=0&page_size=0", 1, 1},
		{"?page=3&page_size=500", 3, 100},
		{"?page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tc.q, nil)
		p := clampPagination(c)
		assert.Equal(t, tc.page, p.Number, tc.q)
		assert.Equal(t, tc.size, p.Size, tc.q)
	}
}
