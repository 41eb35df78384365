package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"picturebridge/internal/camera"
	"picturebridge/internal/config"
	"picturebridge/internal/logger"
	"picturebridge/internal/mqtt"
	"picturebridge/internal/repository/sqlite"
	"picturebridge/internal/route"
	"picturebridge/internal/serial"
	"picturebridge/internal/service/capture"
	"picturebridge/internal/service/dispatcher"
	"picturebridge/internal/service/filter"
	"picturebridge/internal/service/notify"
	"picturebridge/internal/service/storage"
	"picturebridge/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	link       *serial.Link
	hubService *websocket.HubService
	mqttClient *mqtt.Client
	publisher  *mqtt.Publisher
	pipeline   *capture.Pipeline
	dispatcher *dispatcher.Dispatcher
	server     *http.Server
}

// NewApp opens every device and store the process needs. On error
// everything opened so far is closed again.
func NewApp(serialPort string) (a *App, err error) {
	cfg, err := config.Load(serialPort)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}
	a = &App{config: cfg, logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.db, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	history := sqlite.NewCaptureRepository(a.db)

	store, err := storage.NewImageStore(cfg.WebRoot)
	if err != nil {
		return nil, err
	}

	a.link, err = serial.Open(cfg.SerialPort, cfg.SerialBaud)
	if err != nil {
		return nil, err
	}

	a.hubService = websocket.NewHubService(log)

	var mirrors []notify.Broadcaster
	if cfg.MQTT.Broker != "" {
		a.mqttClient, err = mqtt.NewClient(cfg.MQTT, log)
		if err != nil {
			return nil, err
		}
		a.publisher = mqtt.NewPublisher(a.mqttClient.GetNativeClient(), cfg.MQTT.TopicPrefix, log)
		mirrors = append(mirrors, a.publisher)
	}
	notifier := notify.NewFanout(a.hubService, mirrors...)

	opts := capture.Options{
		Mode:         cfg.CaptureMode,
		Camera:       camera.New(cfg.Camera, log),
		Store:        store,
		Notifier:     notifier,
		History:      history,
		Logger:       log,
		Extension:    cfg.Camera.Extension(),
		PollInterval: cfg.Filter.PollInterval,
		PollTimeout:  cfg.Filter.PollTimeout,
	}
	if cfg.CaptureMode == config.ModeFilter {
		opts.Filter = filter.NewClient(cfg.Filter)
	}
	a.pipeline = capture.NewPipeline(opts)

	a.dispatcher = dispatcher.New(a.link, notifier, a.pipeline, log)

	router := route.SetupRoutes(cfg, route.Services{
		Hub:       a.hubService,
		OnCommand: a.dispatcher.HandleClientCommand,
		Pipeline:  a.pipeline,
		History:   history,
		Logger:    log,
	})
	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return a, nil
}

// Run serves until a signal arrives or the serial link or HTTP server
// fails. A serial failure is returned as an error.
func (a *App) Run() error {
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background services
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()
	go a.pipeline.Run(ctx)
	if a.publisher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.publisher.Start(ctx)
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		err := a.link.ReadLines(ctx, a.dispatcher.HandleSerialLine)
		errCh <- fmt.Errorf("serial link: %w", err)
	}()
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	a.logger.Info("Picture bridge listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Serial port: %s @ %d baud", a.config.SerialPort, a.config.SerialBaud)
	a.logger.Info("Web root: %s, capture mode: %s", a.config.WebRoot, a.config.CaptureMode)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case runErr = <-errCh:
		a.logger.Error("Fatal: %v", runErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown: %v", err)
	}

	// The database and log files stay open until the last run is recorded.
	<-a.pipeline.Done()
	wg.Wait()
	return runErr
}

func (a *App) close() {
	if a.link != nil {
		a.link.Close()
	}
	if a.mqttClient != nil {
		a.mqttClient.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Close()
}
