package handler

import "github.com/labstack/echo/v4"

// respond writes data inside the success envelope.
func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Data: data, StatusCode: status, Message: "Success"})
}
