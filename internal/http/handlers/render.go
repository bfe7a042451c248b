package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "vintagestore/internal/log"
	"vintagestore/internal/services"
)

const msgInternal = "Something went wrong. Please try again."

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

// failMutation maps a mutation error to a response. Only errors meant for the
// back office are echoed; the rest are logged under action.
func failMutation(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	var ue *services.UploadError
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ue):
		applog.Error(c, action, err, fields)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false, "message": "Could not upload " + ue.File, "errorFile": ue.File,
		})
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": ve.Message})
		return fail(c, fiber.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCategoryNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	applog.Error(c, action, err, fields)
	return fail(c, fiber.StatusInternalServerError, msgInternal)
}

// ErrorHandler logs and answers a generic message without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return fail(c, fe.Code, fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, msgInternal)
}
