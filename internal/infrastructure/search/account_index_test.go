package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
)

type esRequest struct {
	method string
	path   string
	body   map[string]any
}

func newFakeES(t *testing.T, status int) (*AccountIndex, func() []esRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []esRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		reqs = append(reqs, esRequest{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	es, err := helpers.NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	return NewAccountIndex(es, "accounts"), func() []esRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]esRequest(nil), reqs...)
	}
}

func TestAccountIndex_IndexAccount(t *testing.T) {
	idx, requests := newFakeES(t, http.StatusCreated)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := idx.IndexAccount(context.Background(), entity.AccountView{
		ID: "acc-1", Name: "Ada", Email: "ada@x.com", IsVerified: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/accounts/_doc/acc-1", reqs[0].path)
	assert.Equal(t, "ada@x.com", reqs[0].body["email"])
	assert.Equal(t, true, reqs[0].body["is_verified"])
	assert.NotContains(t, reqs[0].body, "password_hash")
}

func TestAccountIndex_IndexAccount_ErrorStatus(t *testing.T) {
	idx, _ := newFakeES(t, http.StatusInternalServerError)
	err := idx.IndexAccount(context.Background(), entity.AccountView{ID: "acc-1"})
	require.Error(t, err)
}

func TestAccountIndex_RemoveAccount(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "already gone", status: http.StatusNotFound},
		{name: "cluster error", status: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, requests := newFakeES(t, tt.status)
			err := idx.RemoveAccount(context.Background(), "acc-1")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			reqs := requests()
			require.NotEmpty(t, reqs)
			assert.Equal(t, http.MethodDelete, reqs[0].method)
			assert.Equal(t, "/accounts/_doc/acc-1", reqs[0].path)
		})
	}
}

func TestAccountIndex_NilIsNoop(t *testing.T) {
	var idx *AccountIndex
	assert.Nil(t, NewAccountIndex(nil, "accounts"))
	assert.NoError(t, idx.IndexAccount(context.Background(), entity.AccountView{ID: "acc-1"}))
	assert.NoError(t, idx.RemoveAccount(context.Background(), "acc-1"))
}
