package middleware

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// Metrics records latency per matched route so path ids do not explode labels.
func Metrics(recorder metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		recorder.RecordRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}
