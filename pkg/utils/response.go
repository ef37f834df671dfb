package utils

import (
	"errors"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// Fail renders a classified error with its status and machine-readable code.
func Fail(c *fiber.Ctx, err error) error {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		fe = &failure.Error{Kind: failure.KindTransient, Err: err}
	}
	return c.Status(failure.HTTPStatus(fe.Kind)).JSON(fiber.Map{
		"success": false,
		"error":   fe.UserMessage(),
		"code":    failure.Code(fe.Kind),
	})
}

func Paginated(c *fiber.Ctx, data interface{}, page, limit int, total int64) error {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}
