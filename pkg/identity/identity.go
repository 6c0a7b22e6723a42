// Package identity carries the acting user's display name through a context.
package identity

import "context"

type actorKey struct{}

// WithActor returns a copy of ctx carrying name.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// Actor returns the name stored by WithActor, or "".
func Actor(ctx context.Context) string {
	name, _ := ctx.Value(actorKey{}).(string)
	return name
}

// Context implements ports.IdentityContext on top of WithActor.
type Context struct{}

func (Context) CurrentActorName(ctx context.Context) string {
	return Actor(ctx)
}

// Static always reports the same actor. Useful for CLI and MCP callers.
type Static string

func (s Static) CurrentActorName(context.Context) string {
	return string(s)
}

// Default reports the context actor, falling back to its own value when the
// context carries none.
type Default string

func (d Default) CurrentActorName(ctx context.Context) string {
	if name := Actor(ctx); name != "" {
		return name
	}
	return string(d)
}
