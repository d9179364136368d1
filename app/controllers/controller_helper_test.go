package controllers

import (
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paginationFor(t *testing.T, query string) (int, int) {
	t.Helper()

	var offset, limit int
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		offset, limit = parsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?"+query, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return offset, limit
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{query: "", wantOffset: 0, wantLimit: defaultPageSize},
		{query: "offset=50&limit=10", wantOffset: 50, wantLimit: 10},
		{query: "offset=-3", wantOffset: 0, wantLimit: defaultPageSize},
		{query: "limit=0", wantOffset: 0, wantLimit: defaultPageSize},
		{query: "limit=" + strconv.Itoa(maxPageSize+500), wantOffset: 0, wantLimit: maxPageSize},
		{query: "offset=abc&limit=xyz", wantOffset: 0, wantLimit: defaultPageSize},
	}

	for _, tt := range tests {
		offset, limit := paginationFor(t, tt.query)
		assert.Equal(t, tt.wantOffset, offset, "query %q", tt.query)
		assert.Equal(t, tt.wantLimit, limit, "query %q", tt.query)
	}
}

func TestNormalizeProcessorType(t *testing.T) {
	assert.Equal(t, "stripe", normalizeProcessorType("  Stripe "))
	assert.Equal(t, "paypal", normalizeProcessorType("PAYPAL"))
	assert.Equal(t, "", normalizeProcessorType("   "))
}
