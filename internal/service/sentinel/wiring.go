package sentinel

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/location"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/pipeline"
	"github.com/oshokin/sos-sentinel/internal/repository/directory"
	"github.com/oshokin/sos-sentinel/internal/repository/state"
	"github.com/oshokin/sos-sentinel/internal/transport/sms"
)

// closers releases resources in reverse order of acquisition.
type closers []func()

func (c *closers) add(fn func()) {
	*c = append(*c, fn)
}

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// openStateRepository picks the monitoring flag backend.
func openStateRepository(ctx context.Context, settings *config.Config, cleanup *closers) (state.Repository, error) {
	monitoringSettings := settings.Monitoring

	if monitoringSettings.Backend != config.BackendRedis {
		logger.InfoKV(ctx, "Monitoring flag stored in file", "state_file", monitoringSettings.StateFile)

		return state.NewFileRepository(monitoringSettings.StateFile), nil
	}

	//nolint:exhaustruct // Remaining options keep their defaults.
	client := redis.NewClient(&redis.Options{
		Addr:        monitoringSettings.RedisAddress,
		Password:    monitoringSettings.RedisPassword,
		DB:          monitoringSettings.RedisDB,
		DialTimeout: settings.Timeout,
	})

	cleanup.add(func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", monitoringSettings.RedisAddress, err)
	}

	logger.InfoKV(ctx, "Monitoring flag stored in redis",
		"redis_addr", monitoringSettings.RedisAddress,
		"redis_key", monitoringSettings.RedisKey)

	return state.NewRedisRepository(client, monitoringSettings.RedisKey), nil
}

// openDirectory connects the contacts, subscribers and records store.
func openDirectory(ctx context.Context, settings config.Storage, cleanup *closers) (*directory.Store, error) {
	store, err := directory.Open(ctx, settings.Driver, settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("open directory store: %w", err)
	}

	cleanup.add(func() { _ = store.Close() })

	return store, nil
}

// newLocationSource returns nil when no provider is configured.
func newLocationSource(settings config.Location) (pipeline.LocationSource, error) {
	switch settings.Provider {
	case config.ProviderStatic:
		source, err := location.NewStaticSource(settings.Latitude, settings.Longitude)
		if err != nil {
			return nil, fmt.Errorf("static location: %w", err)
		}

		return source, nil
	case config.ProviderHTTP:
		return location.NewHTTPSource(settings.URL, settings.Timeout), nil
	default:
		return nil, nil //nolint:nilnil // No provider means alerts go out without a fix.
	}
}

// newTransport falls back to logging when no gateway is configured.
func newTransport(ctx context.Context, settings *config.Config) pipeline.AlertTransport {
	if settings.SMS.GatewayURL == "" {
		logger.Warn(ctx, "No SMS gateway configured, SOS messages will only be logged")

		return sms.LogTransport{}
	}

	return sms.NewGatewayTransport(settings.SMS.GatewayURL, settings.SMS.APIKey, settings.SMS.Sender, settings.Timeout)
}
