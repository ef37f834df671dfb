package utils

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads ?page= and ?limit=, clamping both into range.
func ParsePagination(c *fiber.Ctx) PaginationParams {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", defaultPageLimit)

	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Scope is a gorm scope: db.Scopes(p.Scope).
func (p PaginationParams) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset).Limit(p.Limit)
}
