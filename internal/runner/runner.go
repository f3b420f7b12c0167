// Package runner ties fiber apps into an errgroup-driven lifecycle.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// RunFiber starts the app on addr inside the group and shuts it down
// when ctx is canceled.
func RunFiber(ctx context.Context, group *errgroup.Group, app *fiber.App, addr string) {
	group.Go(func() error {
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
}
