package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
)

// AccountIndex mirrors sanitized account views into Elasticsearch.
// A nil *AccountIndex is a valid no-op.
type AccountIndex struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

// NewAccountIndex returns nil when es is nil so callers can wire it unconditionally.
func NewAccountIndex(es *elasticsearch.Client, index string) *AccountIndex {
	if es == nil || index == "" {
		return nil
	}
	return &AccountIndex{es: es, index: index, timeout: 3 * time.Second}
}

type accountDoc struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (i *AccountIndex) IndexAccount(ctx context.Context, v entity.AccountView) error {
	if i == nil {
		return nil
	}
	b, err := json.Marshal(accountDoc{
		ID:         v.ID,
		Name:       v.Name,
		Email:      v.Email,
		IsVerified: v.IsVerified,
		LastLogin:  v.LastLogin,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: v.ID, Body: bytes.NewReader(b), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", v.ID, res.Status())
	}
	return nil
}

// RemoveAccount deletes the document for id. A missing document is not an error.
func (i *AccountIndex) RemoveAccount(ctx context.Context, id string) error {
	if i == nil {
		return nil
	}
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}

	c, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}
