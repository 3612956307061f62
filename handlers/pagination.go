package handlers

import (
	"errors"
	"strconv"
	"time"

	"eduscan-api/services"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var errBadCursor = errors.New("before must be an RFC3339 timestamp or YYYY-MM-DD")

type PaginationParams struct {
	Limit  int
	Before *time.Time
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// ParsePagination reads ?limit= and ?before=. A bad limit falls back to the
// default; a bad cursor is an error. A bare date cursor means records saved
// before that day.
func ParsePagination(c *gin.Context) (PaginationParams, error) {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if beforeStr := c.Query("before"); beforeStr != "" {
		t, err := time.Parse(time.RFC3339Nano, beforeStr)
		if err != nil {
			if t, err = time.Parse("2006-01-02", beforeStr); err != nil {
				return p, errBadCursor
			}
		}
		p.Before = &t
	}

	return p, nil
}

func cursorPage[T any](page services.Page[T]) CursorResponse {
	data := page.Items
	if data == nil {
		data = []T{}
	}
	return CursorResponse{Data: data, NextCursor: page.NextCursor, HasMore: page.HasMore}
}
