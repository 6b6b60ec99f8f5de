package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestContext gives every request a user context that ends when the handler returns, or
// after timeout when it is positive. fasthttp does not report client disconnects, so the
// deadline is what stops generator and database work for an abandoned request.
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(c.UserContext(), timeout)
		} else {
			ctx, cancel = context.WithCancel(c.UserContext())
		}
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
