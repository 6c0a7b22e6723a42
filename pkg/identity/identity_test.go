package identity_test

import (
	"context"
	"testing"

	"github.com/aretw0/brokerdesk/pkg/identity"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	var ic ports.IdentityContext = identity.Context{}

	assert.Empty(t, ic.CurrentActorName(context.Background()))

	ctx := identity.WithActor(context.Background(), "Jo Broker")
	assert.Equal(t, "Jo Broker", ic.CurrentActorName(ctx))
}

func TestStatic(t *testing.T) {
	var ic ports.IdentityContext = identity.Static("cli")
	assert.Equal(t, "cli", ic.CurrentActorName(context.Background()))
}

func TestDefault(t *testing.T) {
	var ic ports.IdentityContext = identity.Default("Front Desk")
	assert.Equal(t, "Front Desk", ic.CurrentActorName(context.Background()))

	ctx := identity.WithActor(context.Background(), "Jo Broker")
	assert.Equal(t, "Jo Broker", ic.CurrentActorName(ctx))
}
