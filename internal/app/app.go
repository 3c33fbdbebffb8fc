// Package app assembles the SERENA server from its parts and runs it until
// the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/RiveroDeveloper/boat-ui-interface/internal/broadcast"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/config"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/dispatcher"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/geo"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/handlers"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/httpapi"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/hub"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/logging"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/mqtt"
	intOtel "github.com/RiveroDeveloper/boat-ui-interface/internal/otel"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/simulator"
	"github.com/RiveroDeveloper/boat-ui-interface/internal/vessel"
)

const (
	shutdownTimeout    = 10 * time.Second
	mqttConnectTimeout = 5 * time.Second
)

// Options control how Run starts the server.
type Options struct {
	ConfigDir string
	Version   string

	// Listener overrides the configured HTTP port when set.
	Listener net.Listener
}

// Run loads the configuration, starts every component and blocks until ctx
// is done or the HTTP server fails. A clean shutdown returns nil.
func Run(ctx context.Context, opts Options) error {
	sessionStart := time.Now()

	cfgErr := config.Load(opts.ConfigDir)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNotFound) {
		return cfgErr
	}

	otelCfg := config.GetOTelConfig()
	logsDir := config.GetString("logsDir")

	// Outputs
	logFile, err := logging.NewFileWriter(logging.LogFilePath(logsDir, otelCfg.ServiceName, sessionStart))
	if err != nil {
		return err
	}
	defer logFile.Close()

	var graylog io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, otelCfg.ServiceName)
		if err != nil {
			return err
		}
		defer w.Close()
		graylog = w
	}

	var otelFile io.WriteCloser
	if otelCfg.Enabled {
		otelFile, err = logging.NewFileWriter(logging.LogFilePath(logsDir, otelCfg.ServiceName+".otel", sessionStart))
		if err != nil {
			return err
		}
		defer otelFile.Close()
	}

	otelProvider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    otelFile,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setting up OTel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelProvider.Shutdown(sctx); err != nil {
			fmt.Fprintf(logFile, "OTel shutdown failed: %v\n", err)
		}
	}()

	// Vessel
	model := simulator.New()
	boat := vessel.New(model, sessionStart)

	// viewerHub is assigned below; the logger only reads it after Setup.
	var viewerHub *hub.Hub
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{
		Level:       config.GetString("logLevel"),
		Dev:         config.GetBool("dev"),
		File:        logFile,
		Graylog:     graylog,
		Provider:    otelProvider.LoggerProvider(),
		ServiceName: otelCfg.ServiceName,
		Context: logging.VesselContext(
			func() int {
				if viewerHub == nil {
					return 0
				}
				return viewerHub.Count()
			},
			func() bool { return boat.Snapshot().Status.EngineRunning },
		),
	})
	logger := slogManager.Logger()
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		logger.Info("Loaded config")
	}
	logger.Info("SERENA starting",
		"version", opts.Version,
		"session", sessionStart.Format(time.RFC3339),
		"otel", otelProvider.Enabled(),
	)

	// Commands
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(slogManager.Zerolog("dispatcher")))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	handlerService := handlers.NewService(handlers.Dependencies{
		Vessel: boat,
		Logger: logger.With("component", "handlers"),
	})
	handlerService.RegisterHandlers(eventDispatcher)
	logger.Debug("Registered commands", "commands", eventDispatcher.Commands())

	// Viewers
	hubCfg := config.GetHubConfig()
	viewerHub, err = hub.New(hub.Config{
		SendBuffer: hubCfg.SendBuffer,
		WriteWait:  hubCfg.WriteWait,
	}, hub.Dependencies{
		Vessel:     boat,
		Dispatcher: eventDispatcher,
		Logger:     logger.With("component", "hub"),
	})
	if err != nil {
		return fmt.Errorf("creating hub: %w", err)
	}
	defer viewerHub.Close()

	var track *geo.Track
	if size := config.GetInt("track.size"); size > 0 {
		track = geo.NewTrack(size)
	}

	broadcastService, err := broadcast.NewService(broadcast.Dependencies{
		Vessel:     boat,
		Publishers: []broadcast.Publisher{viewerHub},
		Track:      track,
		Logger:     logger.With("component", "broadcast"),
	}, config.GetDuration("broadcast.interval"))
	if err != nil {
		return fmt.Errorf("creating broadcast service: %w", err)
	}

	// MQTT is optional: a broker that cannot be reached leaves the
	// WebSocket side running on its own.
	if mqttCfg := config.GetMQTTConfig(); mqttCfg.Enabled {
		bridge := mqtt.New(mqtt.Config{
			Broker:      mqttCfg.Broker,
			ClientID:    mqttCfg.ClientID,
			TopicPrefix: mqttCfg.TopicPrefix,
		}, eventDispatcher, logger.With("component", "mqtt"))

		cctx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := bridge.Connect(cctx)
		cancel()
		if err != nil {
			logger.Warn("MQTT bridge unavailable, continuing without it", "broker", mqttCfg.Broker, "error", err)
			bridge.Disconnect()
		} else {
			broadcastService.AddPublisher(bridge)
			defer bridge.Disconnect()
		}
	}

	// HTTP
	httpCfg := config.GetHTTPConfig()
	mux := httpapi.NewMux(httpapi.Dependencies{
		Hub:       viewerHub,
		Vessel:    boat,
		Track:     track,
		StaticDir: httpCfg.StaticDir,
		Logger:    logger.With("component", "http"),
	})
	srv := httpapi.NewServer(mux, logger.With("component", "http"))

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", httpCfg.Addr())
		if err != nil {
			return fmt.Errorf("listening on %s: %w", httpCfg.Addr(), err)
		}
	}

	if err := broadcastService.Start(); err != nil {
		return fmt.Errorf("starting broadcast: %w", err)
	}
	defer broadcastService.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("SERENA listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	// Stop producing before closing the sockets it feeds.
	broadcastService.Stop()
	if err := viewerHub.Close(); err != nil {
		logger.Warn("Closing hub failed", "error", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := otelProvider.Flush(sctx); err != nil {
		logger.Warn("Flushing telemetry failed", "error", err)
	}

	logger.Info("Stopped")
	return nil
}
