package utils

import "github.com/gofiber/fiber/v2"

// The boundary contract is three response shapes and nothing else: a
// success indicator carrying the affected entity's identifier (or a short
// confirmation), a single error string, or a field-error map.

// Success wraps an identifier or confirmation in the success shape.
func Success(c *fiber.Ctx, status int, identifier string) error {
	return c.Status(status).JSON(fiber.Map{"success": identifier})
}

// Fail returns a single error string.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// FailFields returns a validation failure as a field-error map.
func FailFields(c *fiber.Ctx, fieldErrors FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fieldErrors})
}

// Data returns a read-only payload for detail and list endpoints.
func Data(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(payload)
}

// Pagination is the list-envelope metadata block.
type Pagination struct {
	Page        int   `json:"page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	Count       int64 `json:"count"`
}

// NewPagination derives the envelope from a total row count and the
// requested window.
func NewPagination(page, pageSize int, count int64) Pagination {
	totalPages := int((count + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{
		Page:        page,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		Count:       count,
	}
}
