package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/docent/internal/config"
)

// DefaultCommandTimeout bounds a shell hook that sets no timeout.
const DefaultCommandTimeout = 10 * time.Second

// Command returns a handler that runs a shell command with the JSON payload
// on stdin. The event name is also exported as DOCENT_HOOK_EVENT.
func Command(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}
	return func(ctx context.Context, p Payload) error {
		input, err := json.Marshal(p)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(input)
		cmd.Env = append(cmd.Environ(), "DOCENT_HOOK_EVENT="+p.Event)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		cmd.WaitDelay = time.Second
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%w: %s", err, msg)
			}
			return err
		}
		return nil
	}
}

// RegisterConfigured attaches every shell hook from configuration.
func RegisterConfigured(m *Manager, cfg config.HooksConfig) {
	byEvent := map[string][]config.HookEntry{
		EventDocumentUploaded: cfg.DocumentUploaded,
		EventBeforeAgentRun:   cfg.BeforeAgentRun,
		EventAfterAgentRun:    cfg.AfterAgentRun,
		EventToolInvoked:      cfg.ToolInvoked,
		EventServerStart:      cfg.ServerStart,
		EventServerStop:       cfg.ServerStop,
	}
	for _, event := range AllEvents {
		for i, entry := range byEvent[event] {
			if strings.TrimSpace(entry.Command) == "" {
				continue
			}
			m.On(event, fmt.Sprintf("config:%s:%d", event, i), Command(entry))
		}
	}
}
