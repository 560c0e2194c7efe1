package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/posttranslate/internal/batch"
	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/problemcheck"
	"codeberg.org/snonux/posttranslate/internal/processor"
	"codeberg.org/snonux/posttranslate/internal/render"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/testutil"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

type testEnv struct {
	cfg      *config.Config
	svc      *translator.Service
	forum    *testutil.Forum
	provider *testutil.MockProvider
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := testutil.OpenTestStore(t)
	env := &testEnv{
		cfg:      testutil.NewTestConfig(),
		forum:    testutil.SeedForum(t, st),
		provider: &testutil.MockProvider{DefaultLocale: "de"},
	}
	env.cfg.AzureSubscriptionKey = "configured"
	env.svc = translator.NewService(env.provider, st, kvstore.NewMemory(), 0, nil)

	queue := batch.NewQueue(context.Background(), 1, 10)
	t.Cleanup(queue.Close)

	proc := processor.NewProcessor(env.cfg, st, env.svc, batch.NewJobs(env.cfg, st, env.svc), queue)
	checker := problemcheck.NewChecker(env.cfg, env.svc)
	env.handler = New(env.cfg, st, env.svc, proc, checker).Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, user *store.User, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-User-Id", fmt.Sprint(user.ID))
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestTranslateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/translator/translate", env.forum.Reader, gin.H{"post_id": env.forum.Post.ID, "locale": "en"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res processor.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "de", res.DetectedLang)
	assert.Equal(t, "en: <p>Wie geht es dir?</p>", res.Translation)
	assert.Equal(t, "en: Guten Tag", res.TitleTranslation)
}

func TestTranslateEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*testEnv)
		user   func(*testEnv) *store.User
		body   gin.H
		status int
	}{
		{
			name:   "missing post id",
			body:   gin.H{},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown post",
			body:   gin.H{"post_id": 4242},
			status: http.StatusNotFound,
		},
		{
			name:   "anonymous",
			user:   func(*testEnv) *store.User { return nil },
			status: http.StatusForbidden,
		},
		{
			name:   "user not in group",
			setup:  func(e *testEnv) { e.cfg.RestrictByGroup = []string{"translators"} },
			status: http.StatusForbidden,
		},
		{
			name:   "poster not in group",
			setup:  func(e *testEnv) { e.cfg.RestrictByPosterGroup = []string{"translators"} },
			status: http.StatusForbidden,
		},
		{
			name: "provider error",
			setup: func(e *testEnv) {
				e.provider.Errors = map[string]error{"<p>Wie geht es dir?</p>": &translator.Error{Provider: "Mock", StatusCode: 500, Message: "down"}}
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "disabled",
			setup:  func(e *testEnv) { e.cfg.Enabled = false },
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}
			user := env.forum.Reader
			if tt.user != nil {
				user = tt.user(env)
			}
			body := tt.body
			if body == nil {
				body = gin.H{"post_id": env.forum.Post.ID, "locale": "en"}
			}

			w := env.do(t, http.MethodPost, "/translator/translate", user, body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestTranslateEndpointRateLimit(t *testing.T) {
	env := newTestEnv(t)
	body := gin.H{"post_id": env.forum.Post.ID, "locale": "en"}

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/translator/translate", env.forum.Reader, body)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := env.do(t, http.MethodPost, "/translator/translate", env.forum.Reader, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.ExperimentalTopicTranslation = true
	ctx := context.Background()

	w := env.do(t, http.MethodPost, "/posts", env.forum.Author, gin.H{"topic_id": env.forum.Topic.ID, "raw": "Bis *bald*"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created render.PostPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 2, created.PostNumber)

	pending, err := env.svc.PendingDetections(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{created.ID}, pending)

	_, _, err = env.svc.Translate(ctx, &store.Post{ID: created.ID, Raw: "Bis *bald*", Cooked: "<p>Bis <em>bald</em></p>"}, "en")
	require.NoError(t, err)

	path := fmt.Sprintf("/posts/%d?locale=en", created.ID)
	w = env.do(t, http.MethodGet, path, env.forum.Reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shown render.PostPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shown))
	assert.Equal(t, "en: <p>Bis <em>bald</em></p>", shown.Cooked)
	assert.True(t, shown.CanTranslate)

	w = env.do(t, http.MethodGet, path+"&show=original", env.forum.Reader, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shown))
	assert.Equal(t, "<p>Bis <em>bald</em></p>", shown.Cooked)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/posts/%d", created.ID), env.forum.Reader, gin.H{"raw": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/posts/%d?locale=en", created.ID), env.forum.Author, gin.H{"raw": "Bis morgen"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shown))
	assert.Empty(t, shown.Cooked, "edited post has no translation yet")
}

func TestTopicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/topics", nil, gin.H{"title": "x", "raw": "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/topics", env.forum.Author, gin.H{"title": "Fragen & Antworten", "raw": "Erste Frage"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var topic render.TopicPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &topic))
	assert.Equal(t, "Fragen &amp; Antworten", topic.FancyTitle)
	require.Len(t, topic.Posts, 1)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/topics/%d", topic.ID), env.forum.Admin, gin.H{"title": "Neue Fragen"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/t/%d", topic.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &topic))
	assert.Equal(t, "Neue Fragen", topic.Title)

	w = env.do(t, http.MethodGet, "/t/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodGet, "/t/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProblemsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/admin/problems", env.forum.Reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.provider.Errors = map[string]error{"<p>Wie geht es dir?</p>": &translator.Error{Provider: "Mock", StatusCode: 500, Message: "down"}}
	env.do(t, http.MethodPost, "/translator/translate", env.forum.Reader, gin.H{"post_id": env.forum.Post.ID, "locale": "en"})

	w = env.do(t, http.MethodGet, "/admin/problems", env.forum.Admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Problems []problemcheck.Problem `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Problems, 1)
	assert.Equal(t, problemcheck.TranslatorError, body.Problems[0].Identifier)
	assert.Contains(t, body.Problems[0].Message, "Mock: down")
}
