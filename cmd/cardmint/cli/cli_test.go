package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardmint/cardmint/internal/shared"
	"github.com/cardmint/cardmint/internal/users"
	_ "github.com/cardmint/cardmint/testing"
)

func TestSeedAdminValidatesInput(t *testing.T) {
	cli := NewBootstrapCLI(users.NewRepository(nil), nil)

	_, err := cli.SeedAdmin(context.Background(), "ab", "long-enough-pass")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = cli.SeedAdmin(context.Background(), "root", "short")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUnconfiguredHelpersError(t *testing.T) {
	var bootstrap *BootstrapCLI
	_, err := bootstrap.SeedAdmin(context.Background(), "root", "long-enough-pass")
	assert.Error(t, err)

	empty := NewBootstrapCLI(users.NewRepository(nil), nil)
	_, err = empty.MintSession(context.Background(), "root")
	assert.Error(t, err)

	var jobsCLI *JobsCLI
	_, err = jobsCLI.Trigger(context.Background(), "cards:expiry_sweep")
	assert.Error(t, err)
	_, err = jobsCLI.InspectQueue(context.Background())
	assert.Error(t, err)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	cli, err := NewJobsCLI("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new jobs cli: %v", err)
	}
	defer func() { _ = cli.Close() }()

	_, err = cli.Trigger(context.Background(), "cards:unknown")
	assert.ErrorContains(t, err, "unsupported job")
}
