package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// EnvPrefix prefixes every variable describing the client to the command.
const EnvPrefix = "BROKERDESK_"

// Dispatcher implements ports.ActionDispatcher by running local processes.
// It follows a Strict Registry pattern for security (Allow-Listing): only
// actions bound in the registry run a command.
type Dispatcher struct {
	registry map[string]ActionConfig
	fallback ports.ActionDispatcher
	baseDir  string
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(actions map[string]ActionConfig) Option {
	return func(d *Dispatcher) {
		for name, a := range actions {
			a.Name = name
			d.registry[name] = a
		}
	}
}

// WithFallback handles actions that have no registered command.
func WithFallback(next ports.ActionDispatcher) Option {
	return func(d *Dispatcher) {
		d.fallback = next
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(d *Dispatcher) {
		d.baseDir = dir
	}
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: make(map[string]ActionConfig),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a trusted command to the allow-list.
func (d *Dispatcher) Register(action, command string, args ...string) {
	d.registry[action] = ActionConfig{Name: action, Command: command, Args: args}
}

// Actions lists the registered action names.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.registry))
	for n := range d.registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the command bound to action.
// Client data is passed as environment variables, never as command flags,
// so user-controlled values cannot inject arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, c *domain.Client) error {
	cfg, ok := d.registry[action]
	if !ok {
		if d.fallback != nil {
			return d.fallback.Dispatch(ctx, action, c)
		}
		return fmt.Errorf("action not registered: %s", action)
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = d.baseDir

	env := cmd.Environ()
	for k, v := range cfg.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, clientEnv(action, c)...)
	cmd.Env = env

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("action %s failed: %w. Stderr: %s", action, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func clientEnv(action string, c *domain.Client) []string {
	vars := map[string]string{
		"ACTION":             action,
		"CLIENT_ID":          c.ID,
		"CLIENT_ORG_ID":      c.OrganizationID,
		"CLIENT_NAME":        c.PersonalInfo.DisplayName(),
		"CLIENT_EMAIL":       c.PersonalInfo.Email,
		"CLIENT_PHONE":       c.PersonalInfo.Phone,
		"CLIENT_STAGE":       string(c.PipelineStage),
		"CLIENT_PIPELINE_ID": c.PipelineID,
		"CARE_MANAGER_EMAIL": c.CareManager.Email,
	}
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, EnvPrefix+k+"="+v)
	}
	sort.Strings(out)
	return out
}
