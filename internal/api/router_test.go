package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubport/clubport/internal/cache"
	"github.com/clubport/clubport/internal/limiter"
	"github.com/clubport/clubport/internal/logger"
	"github.com/clubport/clubport/internal/ranking"
	"github.com/clubport/clubport/internal/store"
)

var testAuth = AuthConfig{Secret: "test-secret", Issuer: "clubport-test"}

type apiRig struct {
	router *gin.Engine
	repo   *store.MemberRepository
}

func newAPIRig(t *testing.T, limCfg limiter.Config) *apiRig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.NewDB(store.Config{Driver: "sqlite", DSN: ":memory:"}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))
	t.Cleanup(func() { store.CloseDB(db) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	facade := cache.NewFacade(client, logger.NewNop())

	repo := store.NewMemberRepository(db)
	engine, err := ranking.NewEngine(repo, facade, nil, ranking.Config{}, logger.NewNop())
	require.NoError(t, err)

	handler := NewHandler(engine, logger.NewNop())
	lim := limiter.New(facade, limCfg, logger.NewNop())
	return &apiRig{
		router: NewRouter(handler, testAuth, lim, logger.NewNop()),
		repo:   repo,
	}
}

func (r *apiRig) seed(t *testing.T, name string, score, joinOrder int64) *store.Member {
	t.Helper()
	m := &store.Member{
		DisplayName: name,
		Email:       fmt.Sprintf("%s-%d@club.test", name, joinOrder),
		Score:       score,
		JoinOrder:   joinOrder,
		Active:      true,
	}
	require.NoError(t, r.repo.Create(context.Background(), m))
	return m
}

func (r *apiRig) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.router.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T, caps ...string) string {
	t.Helper()
	token, err := IssueToken(testAuth, "admin-1", caps,
		jwt.NumericDate{Time: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	return token
}

func TestGetLeaderboard(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	rig.seed(t, "first", 200, 1)
	rig.seed(t, "second", 100, 2)

	rec := rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code int          `json:"code"`
		Data ranking.Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, "first", resp.Data.Entries[0].DisplayName)
	assert.False(t, resp.Data.Cached)
}

func TestGetLeaderboard_InvalidPage(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})

	rec := rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?page=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTopN(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	rig.seed(t, "a", 300, 1)
	rig.seed(t, "b", 200, 2)

	rec := rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/top?n=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Entries []ranking.Entry `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, "a", resp.Data.Entries[0].DisplayName)
}

func TestGetMemberRank(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	m := rig.seed(t, "ada", 100, 1)

	rec := rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/members/"+m.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data ranking.Neighborhood `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Rank)

	rec = rig.do(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/members/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdjustScore_RequiresAuth(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	m := rig.seed(t, "ada", 100, 1)

	body := bytes.NewBufferString(`{"delta": 10, "mode": "add"}`)
	rec := rig.do(httptest.NewRequest(http.MethodPost, "/api/v1/members/"+m.ID+"/score", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdjustScore_RequiresCapability(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	m := rig.seed(t, "ada", 100, 1)

	body := bytes.NewBufferString(`{"delta": 10, "mode": "add"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members/"+m.ID+"/score", body)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "events:manage"))
	rec := rig.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdjustScore_OK(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	m := rig.seed(t, "ada", 100, 1)

	body := bytes.NewBufferString(`{"delta": 150, "mode": "add"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members/"+m.ID+"/score", body)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "points:adjust"))
	rec := rig.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data store.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(250), resp.Data.Score)
	assert.Equal(t, store.TierGold, resp.Data.RankTier)
}

func TestAdjustScore_InvalidMode(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})
	m := rig.seed(t, "ada", 100, 1)

	body := bytes.NewBufferString(`{"delta": 10, "mode": "multiply"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members/"+m.ID+"/score", body)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "points:adjust"))
	rec := rig.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustScore_RateLimited(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{Enabled: true, Limit: 2, Window: time.Minute})
	m := rig.seed(t, "ada", 100, 1)

	token := adminToken(t, "points:adjust")
	var last int
	for i := 0; i < 3; i++ {
		body := bytes.NewBufferString(`{"delta": 1, "mode": "add"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/members/"+m.ID+"/score", body)
		req.Header.Set("Authorization", "Bearer "+token)
		last = rig.do(req).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealthz(t *testing.T) {
	rig := newAPIRig(t, limiter.Config{})

	rec := rig.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
