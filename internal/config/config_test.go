package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	require.ErrorIs(t, Validate(new(Config)), errGRPCAddressRequired)

	// Bad address.
	require.Error(t, Validate(&Config{GRPCAddress: "bad:address"}))

	// Unknown backend.
	settings := &Config{
		GRPCAddress: "127.0.0.1:0",
		Monitoring:  Monitoring{Backend: "etcd"},
	}
	require.ErrorIs(t, Validate(settings), errUnknownBackend)

	// Redis without address.
	settings = &Config{
		GRPCAddress: "127.0.0.1:0",
		Monitoring:  Monitoring{Backend: BackendRedis},
	}
	require.ErrorIs(t, Validate(settings), errRedisAddressRequired)

	// HTTP location provider needs a URL.
	settings = &Config{
		GRPCAddress: "127.0.0.1:0",
		Location:    Location{Provider: ProviderHTTP},
	}
	require.Error(t, Validate(settings))

	// Threshold of one would fire on every toggle.
	settings = &Config{
		GRPCAddress: "127.0.0.1:0",
		Detector:    Detector{Threshold: 1},
	}
	require.ErrorIs(t, Validate(settings), errInvalidThreshold)
}

// TestValidate_Defaults ensures optional sections are filled in.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := &Config{GRPCAddress: "127.0.0.1:50051"}
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultThreshold, settings.Detector.Threshold)
	require.Equal(t, DefaultWindow, settings.Detector.Window)
	require.Equal(t, BackendFile, settings.Monitoring.Backend)
	require.Equal(t, DefaultStateFilename, settings.Monitoring.StateFile)
	require.Equal(t, DriverSQLite, settings.Storage.Driver)
	require.Equal(t, DefaultDatabaseFilename, settings.Storage.DSN)
	require.Equal(t, ProviderNone, settings.Location.Provider)
	require.Equal(t, DefaultLocationTimeout, settings.Location.Timeout)
	require.Equal(t, DefaultTopicPrefix, settings.MQTT.TopicPrefix)
	require.Equal(t, DefaultMaxParallel, settings.Pipeline.MaxParallel)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		GRPCAddress: "127.0.0.1:50051",
		HTTPAddress: "127.0.0.1:8080",
		Detector:    Detector{Threshold: 4, Window: 2 * time.Second},
		Monitoring: Monitoring{
			Backend:      BackendRedis,
			RedisAddress: "127.0.0.1:6379",
		},
		Location: Location{
			Provider:  ProviderStatic,
			Latitude:  52.52,
			Longitude: 13.405,
		},
		Permissions: Permissions{Location: true, SMS: true},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.GRPCAddress, loaded.GRPCAddress)
	require.Equal(t, settings.HTTPAddress, loaded.HTTPAddress)
	require.Equal(t, 4, loaded.Detector.Threshold)
	require.Equal(t, 2*time.Second, loaded.Detector.Window)
	require.Equal(t, DefaultRedisKey, loaded.Monitoring.RedisKey)
	require.InDelta(t, 52.52, loaded.Location.Latitude, 1e-9)
	require.True(t, loaded.Permissions.SMS)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestSave_NilConfig rejects a missing configuration.
func TestSave_NilConfig(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil), errConfigIsNotSet)
}
