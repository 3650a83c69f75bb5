package worker

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FiberPoster posts webhooks with fiber's HTTP client agent.
type FiberPoster struct {
	timeout time.Duration
}

// NewFiberPoster returns a poster with a per-request timeout.
func NewFiberPoster(timeout time.Duration) *FiberPoster {
	return &FiberPoster{timeout: timeout}
}

// Post implements Poster.
func (p *FiberPoster) Post(ctx context.Context, url string, body []byte) (int, error) {
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}
	if timeout <= 0 && ctx.Err() != nil {
		return 0, ctx.Err()
	}

	agent := fiber.Post(url)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(body)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		return 0, err
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return code, errors.Join(errs...)
	}
	return code, nil
}
