package cli

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/app"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

// Execute implements the go-flags Commander interface for PopularCommand.
func (c *PopularCommand) Execute(args []string) error {
	if strings.TrimSpace(c.Origin) == "" && len(args) > 0 {
		c.Origin = args[0]
	}
	if strings.TrimSpace(c.Origin) == "" {
		return fmt.Errorf("--origin is required")
	}

	cfg := c.env.loadConfig()
	svc := app.NewPanel(cfg, newLogger(c.globals), output(c.env, c.globals, domain.SortByStars))

	ctx, stop := signalContext()
	defer stop()

	if _, err := svc.RequestOriginPopular(ctx, panel.PopularRequest{Origin: c.Origin}); err != nil {
		return fmt.Errorf("popular: %w", err)
	}
	return nil
}
