package utils

import "github.com/gofiber/fiber/v2"

// JSONSuccess writes {"success": true, ...payload}.
func JSONSuccess(c *fiber.Ctx, status int, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// Fail maps err onto a status code and writes the error body.
func Fail(c *fiber.Ctx, err error) error {
	return JSONError(c, StatusFor(err), err.Error())
}
