package sentinel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/sos-sentinel/internal/api/grpc/sentinel"
	"github.com/oshokin/sos-sentinel/internal/api/rest"
	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/detector"
	"github.com/oshokin/sos-sentinel/internal/identity"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/notify"
	"github.com/oshokin/sos-sentinel/internal/pipeline"
	"github.com/oshokin/sos-sentinel/internal/service/common"
	"github.com/oshokin/sos-sentinel/internal/service/inbox"
	"github.com/oshokin/sos-sentinel/internal/service/monitoring"
	"github.com/oshokin/sos-sentinel/internal/transport/mqtt"
)

// Options controls the sos-sentinel process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// GRPCAddress overrides the gRPC listen address from settings.
	GRPCAddress string
	// HTTPAddress overrides the HTTP listen address from settings.
	HTTPAddress string
	// AllowMultiple skips the single instance check.
	AllowMultiple bool
}

// shutdownTimeout bounds the HTTP server drain.
const shutdownTimeout = 5 * time.Second

// ErrNoListenAddress indicates missing gRPC address configuration.
var ErrNoListenAddress = errors.New("no grpc listen address configured")

// Run starts the daemon and blocks until ctx is cancelled or a server fails.
//
//nolint:funlen // Linear wiring reads better in one place.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-sentinel")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Setup(settings.LogLevel); err != nil {
		return fmt.Errorf("set log level %q: %w", settings.LogLevel, err)
	}

	if !opts.AllowMultiple {
		if err = common.EnsureSingleInstance(); err != nil {
			return err
		}
	}

	grpcAddress, err := resolveListenAddress(settings.GRPCAddress, opts.GRPCAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	var cleanup closers
	defer cleanup.closeAll()

	repo, err := openStateRepository(ctx, settings, &cleanup)
	if err != nil {
		return err
	}

	store, err := openDirectory(ctx, settings.Storage, &cleanup)
	if err != nil {
		return err
	}

	locationSource, err := newLocationSource(settings.Location)
	if err != nil {
		return err
	}

	sinks := notify.MultiSink{notify.LogSink{}}

	var bridge *mqtt.Bridge

	if settings.MQTT.Broker != "" {
		if bridge, err = mqtt.Dial(ctx, settings.MQTT, settings.Timeout); err != nil {
			return err
		}

		cleanup.add(bridge.Close)

		sinks = append(sinks, notify.NewMQTTSink(bridge))
	}

	monitoringService, err := monitoring.New(ctx, repo)
	if err != nil {
		return fmt.Errorf("initialise monitoring: %w", err)
	}

	toggleDetector := detector.New(monitoringService,
		detector.WithThreshold(settings.Detector.Threshold),
		detector.WithWindow(settings.Detector.Window))

	alertPipeline := pipeline.New(pipeline.Dependencies{
		Contacts:    store,
		Subscribers: store,
		Location:    locationSource,
		Transport:   newTransport(ctx, settings),
		Sink:        sinks,
		Records:     store,
		Permissions: notify.NewStaticGate(settings.Permissions),
	},
		pipeline.WithLocationTimeout(settings.Location.Timeout),
		pipeline.WithMaxParallel(settings.Pipeline.MaxParallel))

	users := identity.NewProvider(settings.Identity.SessionToken, settings.Identity.SigningKey)
	core := NewCore(monitoringService, toggleDetector, alertPipeline, users, sinks)

	// Alerts already dispatched finish before the stores close.
	cleanup.add(core.Wait)

	core.Announce(ctx)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error { return serveGRPC(groupCtx, grpcAddress, core) })

	if httpAddress != "" {
		group.Go(func() error { return serveHTTP(groupCtx, httpAddress, core) })
	}

	if bridge != nil {
		if err = bridge.Subscribe(mqtt.TopicScreen, func([]byte) { core.ReportToggle(groupCtx, 0) }); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Listening for screen events", "topic", bridge.Topic(mqtt.TopicScreen))
	}

	if settings.Inbox.PollInterval > 0 {
		watcher := inbox.New(store, users, sinks, settings.Inbox.PollInterval)

		group.Go(func() error { return watcher.Run(groupCtx) })
	}

	if err = group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Sentinel stopped")

	return nil
}

// serveGRPC blocks until ctx is cancelled.
func serveGRPC(ctx context.Context, address string, core *Core) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	grpcServer := grpc.NewServer()
	api.Register(grpcServer, api.NewServer(core))

	logger.InfoKV(ctx, "gRPC server listening", "listen_address", address)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "gRPC server stopped")

	return nil
}

// serveHTTP blocks until ctx is cancelled.
func serveHTTP(ctx context.Context, address string, core *Core) error {
	gin.SetMode(gin.ReleaseMode)

	//nolint:exhaustruct // Defaults are fine for the rest.
	server := &http.Server{
		Addr:              address,
		Handler:           rest.NewRouter(ctx, core),
		ReadHeaderTimeout: shutdownTimeout,
	}

	errs := make(chan error, 1)

	go func() {
		logger.InfoKV(ctx, "HTTP server listening", "listen_address", address)

		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve HTTP: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info(ctx, "Shutting down HTTP server")

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise binds every interface
// on the port of configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoListenAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid grpc address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
