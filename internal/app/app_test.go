package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/config"
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/testdb"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "app-secret"
	cfg.JWT.ExpiryPeriod = time.Hour
	cfg.Storage.Root = t.TempDir()
	cfg.Storage.BaseURL = "/files"
	return cfg
}

func TestNew_WiresEveryHandler(t *testing.T) {
	a, err := New(testdb.New(t), testConfig(t), Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	h := a.Handlers()
	assert.NotNil(t, h.Indicators)
	assert.NotNil(t, h.Documents)
	assert.NotNil(t, h.Actions)
	assert.NotNil(t, h.Tasks)
	assert.NotNil(t, h.Audits)
	assert.NotNil(t, h.BPFs)
	assert.NotNil(t, h.Statistics)
	assert.NotNil(t, h.Invitations)
	assert.NotNil(t, h.Sessions)
	assert.NotNil(t, h.Bootstrap)
}

func TestNew_CompletionPolicyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CompletionPolicyFile = filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(cfg.CompletionPolicyFile, []byte("evidence_weight: 150\n"), 0o600))

	_, err := New(testdb.New(t), cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evidence_weight")
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig(t)

	n, err := newNotifier(cfg)
	require.NoError(t, err)
	assert.Nil(t, n)

	cfg.Email.Provider = "sendgrid"
	_, err = newNotifier(cfg)
	assert.Error(t, err)

	cfg.Email.Provider = "smtp"
	cfg.SMTP.Host = "localhost"
	cfg.SMTP.Port = 2525
	n, err = newNotifier(cfg)
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestGenerateStatistics_ExplicitOrganizations(t *testing.T) {
	ctx := context.Background()
	a, err := New(testdb.New(t), testConfig(t), Options{
		Clock: domain.FixedClock{At: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	org := uuid.New()
	_, err = a.Bootstrap.Initialize(ctx, domain.Tenant{OrganizationID: org, Role: model.RoleAdmin})
	require.NoError(t, err)

	// An organization that was never bootstrapped still gets an empty snapshot.
	empty := uuid.New()
	run, err := a.GenerateStatistics(ctx, time.Time{}, []uuid.UUID{org, empty}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatsRun{Organizations: 2}, run)

	stat, err := a.Statistics.Get(ctx, domain.Tenant{OrganizationID: org}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 32, stat.TotalIndicators)
	assert.Equal(t, 32, stat.NotStartedIndicators)

	stat, err = a.Statistics.Get(ctx, domain.Tenant{OrganizationID: empty}, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, stat.TotalIndicators)
}
