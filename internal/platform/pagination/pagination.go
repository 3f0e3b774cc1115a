package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	domain "github.com/shopward/backoffice/internal/domain"
)

const (
	// DefaultPageSize is used when the client omits page_size.
	DefaultPageSize = 50
	// MaxPageSize caps page_size to keep queries bounded.
	MaxPageSize = 200
)

// ErrInvalidPageToken marks an undecodable or tampered page token.
var ErrInvalidPageToken = errors.New("pagination: invalid page token")

// Cursor is the opaque payload behind a page token. StartAfter carries the
// order-by values of the last document on the previous page.
type Cursor struct {
	StartAfter []any `json:"startAfter,omitempty"`
}

// EncodeToken serializes the cursor into a URL-safe page token. An empty
// cursor encodes to the empty string, meaning no further pages.
func EncodeToken(cursor Cursor) string {
	if len(cursor.StartAfter) == 0 {
		return ""
	}
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return cursor, nil
}

// FromRequest extracts page_size and page_token query parameters, clamping
// the size into [1, MaxPageSize].
func FromRequest(r *http.Request) (domain.Pagination, error) {
	pager := domain.Pagination{PageSize: DefaultPageSize}

	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return domain.Pagination{}, fmt.Errorf("pagination: page_size %q is not a positive integer", raw)
		}
		if size > MaxPageSize {
			size = MaxPageSize
		}
		pager.PageSize = size
	}

	pager.PageToken = strings.TrimSpace(r.URL.Query().Get("page_token"))
	if _, err := DecodeToken(pager.PageToken); err != nil {
		return domain.Pagination{}, err
	}
	return pager, nil
}

// Normalize applies defaults to a possibly zero-valued Pagination.
func Normalize(pager domain.Pagination) domain.Pagination {
	if pager.PageSize <= 0 {
		pager.PageSize = DefaultPageSize
	}
	if pager.PageSize > MaxPageSize {
		pager.PageSize = MaxPageSize
	}
	return pager
}
