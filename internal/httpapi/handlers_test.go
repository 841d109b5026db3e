package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/check"
	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo/memory"
)

// ---- test helpers ----

type fakeChecker struct {
	res   domain.CheckResult
	err   error
	calls int
	last  check.Request
}

func (f *fakeChecker) Check(_ context.Context, req check.Request) (domain.CheckResult, error) {
	f.calls++
	f.last = req
	return f.res, f.err
}

type failingSink struct{}

func (failingSink) Write(context.Context, domain.CheckResult) error { return errors.New("sink down") }

type sinkCounter struct{ n int }

func (c *sinkCounter) SinkError() { c.n++ }

func post(t *testing.T, h http.Handler, headers map[string]string) (*httptest.ResponseRecorder, domain.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

// ---- tests ----

func TestHandleCheck_Success(t *testing.T) {
	chk := &fakeChecker{res: domain.CheckResult{SiteID: "s1", Status: domain.StatusDown, HTTPCode: 503, URL: "https://x.test"}}
	store := memory.New()
	h := NewServer(zap.NewNop(), chk, store).Router(0, 0)

	rr, env := post(t, h, map[string]string{"x-website-id": "s1", "x-max-retries": "2"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	// a DOWN target is still a successful check
	assert.True(t, env.Success)
	assert.Equal(t, check.MsgComplete, env.Message)
	require.NotNil(t, env.Data)
	assert.Equal(t, domain.StatusDown, env.Data.Status)

	assert.Equal(t, "s1", chk.last.WebsiteID)
	require.NotNil(t, chk.last.MaxRetries)
	assert.Equal(t, 2, *chk.last.MaxRetries)

	require.Len(t, store.Results(), 1)
	assert.EqualValues(t, "s1", store.Results()[0].SiteID)
}

func TestHandleCheck_MaxRetriesHeader(t *testing.T) {
	for _, raw := range []string{"", "abc", " "} {
		chk := &fakeChecker{}
		h := NewServer(zap.NewNop(), chk, nil).Router(0, 0)
		post(t, h, map[string]string{"x-website-id": "s1", "x-max-retries": raw})
		assert.Nil(t, chk.last.MaxRetries, "header %q", raw)
	}
}

func TestHandleCheck_ErrorKinds(t *testing.T) {
	cases := []struct {
		kind    check.Kind
		code    int
		message string
	}{
		{check.KindInput, http.StatusBadRequest, check.MsgMissingSiteID},
		{check.KindNotFound, http.StatusNotFound, check.MsgSiteNotFound},
		{check.KindCanceled, http.StatusServiceUnavailable, check.MsgCheckAborted},
		{check.KindInternal, http.StatusInternalServerError, check.MsgInternalError},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			store := memory.New()
			chk := &fakeChecker{err: &check.Error{Kind: c.kind, Message: c.message}}
			h := NewServer(zap.NewNop(), chk, store).Router(0, 0)

			rr, env := post(t, h, map[string]string{"x-website-id": "s1"})
			assert.Equal(t, c.code, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, c.message, env.Message)
			assert.NotEmpty(t, env.Error)
			assert.Nil(t, env.Data)
			assert.Empty(t, store.Results(), "failed checks are not persisted")
		})
	}
}

func TestHandleCheck_SinkFailureKeepsSuccess(t *testing.T) {
	chk := &fakeChecker{res: domain.CheckResult{SiteID: "s1", Status: domain.StatusUp}}
	counter := &sinkCounter{}
	srv := NewServer(zap.NewNop(), chk, failingSink{})
	srv.Errors = counter

	rr, env := post(t, srv.Router(0, 0), map[string]string{"x-website-id": "s1"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 1, counter.n)
}

func TestHandleCheck_RateLimited(t *testing.T) {
	chk := &fakeChecker{res: domain.CheckResult{SiteID: "s1", Status: domain.StatusUp}}
	h := NewServer(zap.NewNop(), chk, nil).Router(60, 1)

	rr, _ := post(t, h, map[string]string{"x-website-id": "s1"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr, env := post(t, h, map[string]string{"x-website-id": "s1"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, 1, chk.calls)
}
