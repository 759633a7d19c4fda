package pagination

import (
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 250
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Size clamps PageSize into [1, MaxPageSize].
func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// Offset decodes the page token, returning 0 for an empty or malformed token.
func (p Pagination) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	cursor, err := DecodeCursor(p.PageToken)
	if err != nil || cursor.Offset < 0 {
		return 0
	}
	return cursor.Offset
}

type Cursor struct {
	Offset int `json:"o"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
	Total         int    `json:"total"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// Slice returns the requested page of an already ordered result.
func Slice[T any](items []T, page Pagination) ([]T, PageInfo) {
	info := PageInfo{Total: len(items)}
	offset := page.Offset()
	if offset >= len(items) {
		return []T{}, info
	}

	end := offset + page.Size()
	if end < len(items) {
		info.HasMore = true
		info.NextPageToken, _ = EncodeCursor(Cursor{Offset: end})
	} else {
		end = len(items)
	}
	return items[offset:end], info
}
