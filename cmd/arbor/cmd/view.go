package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/go-drift/arbor/cmd/arbor/internal/termhost"
	"github.com/go-drift/arbor/pkg/event"
)

func init() {
	RegisterCommand(&Command{
		Name:  "view",
		Short: "Browse a document in the terminal",
		Long: `Load and render an element document and show it full screen.

Keys:
  Tab, Down         Focus the next element
  Shift-Tab, Up     Focus the previous element
  Home              Focus the root
  q, Esc, Ctrl-C    Quit

Terminal input is queued (queue.capacity and queue.overflow in arbor.yaml)
and dispatched to the focused element, bubbling to its ancestors.

Flags:
  --style FILE    Load an additional style sheet (repeatable)`,
		Usage: "arbor view <document> [--style FILE]",
		Run:   runView,
	})
}

func runView(args []string) error {
	flags, err := parseDocFlags(args)
	if err != nil {
		return err
	}
	if len(flags.rest) != 1 {
		return fmt.Errorf("exactly one document is required\n\nUsage: arbor view <document>")
	}

	s, err := openSession(flags.styles)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.load(flags.rest[0])
	if root == nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.EnableMouse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := event.NewQueue(s.cfg.QueueCapacity, s.cfg.Overflow)
	host := termhost.New(screen, s.arena, root, q)
	s.logger.Debug("viewer started", slog.String("document", flags.rest[0]), slog.Int("elements", s.arena.Len()))

	runErr := host.Run(ctx)
	screen.Fini()
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	if n := q.Dropped(); n > 0 {
		s.logger.Info("events dropped on overflow", slog.Uint64("dropped", n))
	}
	return nil
}
