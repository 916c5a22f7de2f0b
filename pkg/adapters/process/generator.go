// Package process runs creative generation as a local command, for render
// pipelines that live on the same machine as the wizard.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/google/uuid"
)

// Exit codes a command uses to report upstream limits (sysexits EX_TEMPFAIL and EX_NOPERM).
const (
	ExitRateLimited    = 75
	ExitQuotaExhausted = 77
)

const waitDelay = 2 * time.Second

var reEnvKey = regexp.MustCompile(`[^A-Z0-9]+`)

// Generator implements ports.Generator by running Command once per request.
// The request is written to stdin as JSON, and each text input is also
// exported as ADWIZARD_INPUT_<ID>. Stdout must be a JSON array of creatives
// or an object with an "outputs" array.
type Generator struct {
	command string
	args    []string
	baseDir string
	env     []string
}

// Option configures the Generator.
type Option func(*Generator)

// WithBaseDir sets the working directory for the command.
func WithBaseDir(dir string) Option {
	return func(g *Generator) {
		g.baseDir = dir
	}
}

// WithEnv adds KEY=VALUE pairs to the command environment.
func WithEnv(env ...string) Option {
	return func(g *Generator) {
		g.env = append(g.env, env...)
	}
}

// NewGenerator creates a Generator for command and its fixed args.
func NewGenerator(command string, args []string, opts ...Option) *Generator {
	g := &Generator{command: command, args: args}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the command. The context bounds the run; user input never
// reaches the argument list.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Creative, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.command, g.args...)
	cmd.Dir = g.baseDir
	cmd.Stdin = bytes.NewReader(payload)
	// Grandchildren holding stdout open must not outlive a cancelled run.
	cmd.WaitDelay = waitDelay

	env := append(cmd.Environ(), g.env...)
	env = append(env, "ADWIZARD_TEMPLATE_ID="+req.TemplateID, "ADWIZARD_SESSION_ID="+req.SessionID)
	for _, in := range req.CollectedInputs {
		val := in.Value.Text
		if in.Value.Blob != nil {
			val = in.Value.Blob.URL
		}
		env = append(env, fmt.Sprintf("ADWIZARD_INPUT_%s=%s", envKey(in.InputID), val))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(err, stderr.String())
	}

	return decodeOutputs(stdout.Bytes())
}

func envKey(id string) string {
	return strings.Trim(reEnvKey.ReplaceAllString(strings.ToUpper(id), "_"), "_")
}

func classify(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case ExitRateLimited:
			return fmt.Errorf("%w: %s", domain.ErrRateLimited, stderr)
		case ExitQuotaExhausted:
			return fmt.Errorf("%w: %s", domain.ErrQuotaExhausted, stderr)
		}
	}
	return fmt.Errorf("%w: execution failed: %v. Stderr: %s", domain.ErrUpstream, err, stderr)
}

func decodeOutputs(out []byte) ([]domain.Creative, error) {
	trimmed := bytes.TrimSpace(out)

	var creatives []domain.Creative
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &creatives); err != nil {
			return nil, fmt.Errorf("%w: invalid output: %v", domain.ErrUpstream, err)
		}
	case bytes.HasPrefix(trimmed, []byte("{")):
		var wrapped struct {
			Outputs []domain.Creative `json:"outputs"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: invalid output: %v", domain.ErrUpstream, err)
		}
		creatives = wrapped.Outputs
	default:
		return nil, fmt.Errorf("%w: command printed no JSON outputs", domain.ErrUpstream)
	}

	if len(creatives) == 0 {
		return nil, fmt.Errorf("%w: command returned no creatives", domain.ErrUpstream)
	}
	for i := range creatives {
		if creatives[i].ID == "" {
			creatives[i].ID = uuid.NewString()
		}
	}
	return creatives, nil
}
