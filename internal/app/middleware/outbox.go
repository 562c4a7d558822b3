package middleware

import (
	"context"

	"meytle/internal/app/commands"
	"meytle/internal/app/outbox"
)

// OutboxFlush binds a fresh staging scope to each command and hands the
// scope's records to the sink only after the command succeeded. It sits
// outside the Transaction middleware, so records reach the sink only for
// committed commands, and a failed command's records die with its scope
// without touching any other in-flight command.
func OutboxFlush(sink outbox.Sink) CommandMiddleware {
	if sink == nil {
		panic("middleware: outbox sink required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			scope := outbox.NewScope()
			ctx = outbox.ContextWithScope(ctx, scope)
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if records := scope.Drain(); len(records) > 0 {
				if err := sink.Enqueue(ctx, records); err != nil {
					return nil, err
				}
			}
			return res, nil
		})
	}
}
