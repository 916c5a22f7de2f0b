package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/internal/config"
	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/internal/presentation/tui"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// ChatOptions configures an interactive chat session.
type ChatOptions struct {
	SessionID string
	Headless  bool
	Fresh     bool
	Debug     bool

	// Input and Output default to Stdin and Stdout.
	Input  io.Reader
	Output io.Writer
}

// Chat runs the wizard as a terminal conversation until EOF, "exit" or an interrupt.
func Chat(cfg config.Config, opts ChatOptions) error {
	logger := NewLogger(cfg, opts.Debug)
	if !opts.Debug {
		// Log lines would interleave with the conversation.
		logger = logging.NewNop()
	}

	in, out := opts.Input, opts.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	interactive := !opts.Headless && isTerminal(out)
	if interactive {
		tui.PrintBanner(out, adwizard.Version)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	stack, err := BuildStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := stack.Wizard.Delete(sigCtx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	r := &adwizard.Runner{
		Input:    NewInterruptibleReader(in, sigCtx.Done()),
		Output:   out,
		Headless: opts.Headless,
	}
	if interactive {
		r.Renderer = tui.NewRenderer()
	}

	runErr := r.Run(sigCtx, stack.Wizard, opts.SessionID)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	if !opts.Headless {
		logCompletion(out, opts.SessionID, runErr, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
