package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/app"
	"shelf/config"
	"shelf/contacts"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewConfigBuilder().
		WithStoreDir(t.TempDir()).
		WithDatabase("app-test").
		WithPort("0").
		Build()
	require.NoError(t, err)
	return cfg
}

func TestNewContainerWithConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := app.NewContainerWithConfig(testConfig(t), logger)
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.Registry)
	assert.NotNil(t, container.ContactRepo)
	assert.NotNil(t, container.ContactService)
	assert.NotNil(t, container.Config)

	// The wiring must be live end to end.
	created, err := container.ContactService.CreateContact(context.Background(), contacts.ContactInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	count, err := container.ContactService.CountContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandlerContainer(t *testing.T) {
	container, err := app.NewContainerWithConfig(testConfig(t), nil)
	require.NoError(t, err)
	defer container.Close()

	hc := container.HandlerContainer()
	assert.Same(t, container.Registry, hc.Registry)
	assert.Same(t, container.Config, hc.Config)
	assert.NotNil(t, hc.ContactService)
}

func TestContainerClose(t *testing.T) {
	container, err := app.NewContainerWithConfig(testConfig(t), nil)
	require.NoError(t, err)

	_, err = container.ContactService.CreateContact(context.Background(), contacts.ContactInput{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, container.Close())
	require.NoError(t, container.Close())

	// The registry reopens the database on demand, so data written before
	// shutdown is still there.
	count, err := container.ContactService.CountContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
