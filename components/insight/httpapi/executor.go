package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insight/components/insight/commands"
)

// Executor is the command surface transports invoke. It hides go-command
// generics behind plain methods so routers only deal with inputs.
type Executor interface {
	Refresh(ctx context.Context, input commands.RefreshFeedInput) error
	Invalidate(ctx context.Context, input commands.InvalidateFeedInput) error
}

// CommandExecutor adapts shared commands into the Executor interface.
type CommandExecutor struct {
	RefreshCmd    gocommand.Commander[commands.RefreshFeedInput]
	InvalidateCmd gocommand.Commander[commands.InvalidateFeedInput]
}

var _ Executor = (*CommandExecutor)(nil)

// Refresh executes the refresh command.
func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshFeedInput) error {
	if e.RefreshCmd == nil {
		return errors.New("httpapi: refresh command not configured")
	}
	return e.RefreshCmd.Execute(ctx, input)
}

// Invalidate executes the invalidate command.
func (e *CommandExecutor) Invalidate(ctx context.Context, input commands.InvalidateFeedInput) error {
	if e.InvalidateCmd == nil {
		return errors.New("httpapi: invalidate command not configured")
	}
	return e.InvalidateCmd.Execute(ctx, input)
}
