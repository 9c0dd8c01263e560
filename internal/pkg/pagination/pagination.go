package pagination

import (
	"strconv"

	"healthmate/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// Params represents pagination parameters
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// reserved query keys that are not forwarded as filters
var reserved = map[string]bool{"page": true, "limit": true, "ordering": true}

// Normalize clamps page and limit into range
func Normalize(page, limit int) *Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return &Params{Page: page, Limit: limit}
}

// GetParams extracts pagination parameters from request
func GetParams(c *fiber.Ctx) *Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultLimit)))
	return Normalize(page, limit)
}

// ListOptions builds backend list options from the request query: page,
// limit and ordering plus every other query parameter as a filter.
func ListOptions(c *fiber.Ctx) domain.ListOptions {
	params := GetParams(c)
	opts := domain.ListOptions{
		Page:    params.Page,
		Limit:   params.Limit,
		OrderBy: c.Query("ordering"),
		Filters: map[string]string{},
	}
	for key, value := range c.Queries() {
		if reserved[key] || value == "" {
			continue
		}
		opts.Filters[key] = value
	}
	return opts
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int) *Meta {
	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}

	return &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
