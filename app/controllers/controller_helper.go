package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 25
const maxPageSize = 100

// parsePagination reads offset/limit query parameters with sane bounds.
func parsePagination(c *fiber.Ctx) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

// normalizeProcessorType lowercases and trims a processor type path segment.
func normalizeProcessorType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
