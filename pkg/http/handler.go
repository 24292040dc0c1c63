package http

import "github.com/labstack/echo/v4"

// Handler mounts its routes on the shared Echo instance. Server calls
// RegisterRoutes once per handler before it starts listening.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
