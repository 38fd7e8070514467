package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/operation"
)

// fakeSyncer 记录调用，以及调用时 context 是否已结束
type fakeSyncer struct {
	issues  []int
	full    int
	err     error
	ctxErrs []error
}

func (f *fakeSyncer) Sync(ctx context.Context) (operation.Stats, error) {
	f.full++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return operation.Stats{Total: 3, Written: 1}, f.err
}

func (f *fakeSyncer) SyncIssue(ctx context.Context, number int) (operation.Stats, error) {
	f.issues = append(f.issues, number)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return operation.Stats{Total: 1, Written: 1}, f.err
}

func newServer(t *testing.T, secret string) (*Server, *fakeSyncer) {
	gin.SetMode(gin.TestMode)
	syncer := &fakeSyncer{}
	s, err := New(&config.Config{Repository: "owner/repo", WebhookSecret: secret}, syncer)
	require.NoError(t, err)
	return s, syncer
}

func post(s *Server, event, body string, headers map[string]string) *httptest.ResponseRecorder {
	return postWithContext(context.Background(), s, event, body, headers)
}

func postWithContext(ctx context.Context, s *Server, event, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	s.Wait()
	return w
}

const issuesBody = `{"action": "edited", "issue": {"number": 42}, "repository": {"full_name": "owner/repo"}}`

func TestWebhook(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		body   string
		status int
		synced []int
	}{
		{"issues", "issues", issuesBody, http.StatusAccepted, []int{42}},
		{"comment", "issue_comment", `{"action": "created", "issue": {"number": 7}, "repository": {"full_name": "Owner/Repo"}}`, http.StatusAccepted, []int{7}},
		{"ping", "ping", `{"zen": "hi", "hook_id": 1}`, http.StatusOK, nil},
		{"other repo", "issues", `{"action": "edited", "issue": {"number": 1}, "repository": {"full_name": "other/repo"}}`, http.StatusOK, nil},
		{"deleted", "issues", `{"action": "deleted", "issue": {"number": 1}, "repository": {"full_name": "owner/repo"}}`, http.StatusOK, nil},
		{"unhandled event", "push", `{}`, http.StatusOK, nil},
		{"missing event", "", issuesBody, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, syncer := newServer(t, "")
			w := post(s, tt.event, tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.synced, syncer.issues)
		})
	}
}

func TestWebhookSignature(t *testing.T) {
	s, syncer := newServer(t, "s3cret")

	w := post(s, "issues", issuesBody, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(s, "issues", issuesBody, map[string]string{"X-Hub-Signature": "sha1=0000000000000000000000000000000000000000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, syncer.issues)

	mac := hmac.New(sha1.New, []byte("s3cret"))
	_, _ = mac.Write([]byte(issuesBody))
	w = post(s, "issues", issuesBody, map[string]string{"X-Hub-Signature": "sha1=" + hex.EncodeToString(mac.Sum(nil))})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int{42}, syncer.issues)
}

func TestWebhookSyncError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	old := global.Sugar
	global.Sugar = zap.New(core).Sugar()
	defer func() { global.Sugar = old }()

	s, syncer := newServer(t, "")
	syncer.err = errors.New("HTTP 404")
	w := post(s, "issues", issuesBody, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, logs.FilterMessage("webhook sync").Len())
	assert.Equal(t, "HTTP 404", logs.All()[0].ContextMap()["err"])
}

func TestWebhookOutlivesRequest(t *testing.T) {
	s, syncer := newServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := postWithContext(ctx, s, "issues", issuesBody, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int{42}, syncer.issues)
	assert.Equal(t, []error{nil}, syncer.ctxErrs)
}

func TestSyncEndpoint(t *testing.T) {
	s, syncer := newServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil).WithContext(ctx))
	s.Wait()
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, syncer.full)
	assert.Equal(t, []error{nil}, syncer.ctxErrs)
}

func TestUntilNext(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		at   string
		want time.Duration
	}{
		{"11:00", 30 * time.Minute},
		{"10:30", 24 * time.Hour},
		{"03:00", 16*time.Hour + 30*time.Minute},
	}
	for _, tt := range tests {
		got, err := untilNext(now, tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.at)
	}

	_, err := untilNext(now, "25:99")
	assert.Error(t, err)
}
