package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/audit"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/cedar"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/config"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/dispatch"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/followup"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/metrics"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/response"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger
	logger := log.New(os.Stdout, "[crisis-guard] ", log.LstdFlags|log.Lshortfile)

	// Load configuration
	cfg := config.Load()
	logger.Printf("Configuration loaded (log level %s)", cfg.Logging.Level)

	// Classifier
	phrases := crisis.DefaultPhraseSet()
	if cfg.Phrases.File != "" {
		var err error
		phrases, err = crisis.LoadPhraseSet(cfg.Phrases.File)
		if err != nil {
			logger.Fatalf("Failed to load phrase set: %v", err)
		}
	}
	classifier := crisis.NewClassifier(phrases)
	logger.Printf("Classifier ready with %d phrases", phrases.Len())

	// Emergency resources
	directory := resources.NewDirectory(cfg.Resources.File, logger)
	if err := directory.Load(); err != nil {
		logger.Fatalf("Failed to load emergency resources: %v", err)
	}

	// Cedar policy engine
	cedarEngine, err := cedar.NewEngineWithLogger(cfg.Policies.Path, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Cedar Engine: %v", err)
	}
	if cfg.Policies.Path != "" && cfg.Policies.WatchChanges {
		if err := cedarEngine.StartHotReload(); err != nil {
			logger.Printf("[WARN] Policy hot reload disabled: %v", err)
		}
	}
	defer cedarEngine.StopHotReload()

	// Anonymized event log
	sink, err := openSink(cfg.EventLog)
	if err != nil {
		logger.Fatalf("Failed to open event log: %v", err)
	}
	events := audit.NewLogger(sink, logger)
	defer events.Close()

	// Dispatch
	var launcher dispatch.Launcher = dispatch.LogLauncher{Logger: logger}
	if cfg.Dispatch.GatewayURL != "" {
		launcher = dispatch.NewGatewayLauncher(cfg.Dispatch.GatewayURL, cfg.Dispatch.Timeout)
	}
	breaker := dispatch.NewCircuitBreaker(dispatch.CircuitBreakerConfig{
		Enabled:          cfg.Dispatch.Breaker.Enabled,
		FailureThreshold: cfg.Dispatch.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Dispatch.Breaker.SuccessThreshold,
		Timeout:          cfg.Dispatch.Breaker.Timeout,
	})
	dispatcher := dispatch.NewDispatcher(directory, launcher, breaker, logger)

	// Follow-ups
	followUps, err := followup.NewManager(followup.Config{
		DefaultFollowUp: cfg.FollowUp.Default,
		Grace:           cfg.FollowUp.Grace,
	}, followup.LogNotifier{Logger: logger}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize follow-ups: %v", err)
	}

	coordinator := response.NewCoordinator(classifier, cedarEngine, directory, events, followUps, logger)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics.Init()
		metricsPath = cfg.Metrics.Endpoint
	}

	handler := server.NewHandler(&server.HandlerConfig{
		Classifier:     classifier,
		Coordinator:    coordinator,
		Directory:      directory,
		Dispatcher:     dispatcher,
		FollowUps:      followUps,
		CedarEngine:    cedarEngine,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		MetricsPath:    metricsPath,
		Logger:         logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Println("=================================")
	logger.Println("Crisis Guard Starting")
	logger.Println("=================================")
	logger.Printf("Server:    http://%s", addr)
	logger.Printf("Policy:    %s", cedarEngine.PolicyVersion())
	logger.Printf("Event log: %s", cfg.EventLog.Driver)
	logger.Println("=================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP reloads the resource directory
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			directory.Reload()
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if due := followUps.Due(now); len(due) > 0 {
					logger.Printf("[INFO] %d follow-ups due", len(due))
				}
			}
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("[ERROR] Graceful shutdown failed: %v", err)
	}
}

// openSink opens the configured event log backend
func openSink(cfg config.EventLogConfig) (audit.Sink, error) {
	switch cfg.Driver {
	case "jsonl", "":
		return audit.NewJSONLSink(cfg.Path)
	case "sqlite":
		dsn := cfg.Path
		if dsn == "" {
			dsn = "crisis_events.db"
		}
		return audit.OpenSQLite(context.Background(), dsn)
	default:
		return nil, fmt.Errorf("unknown event log driver %q", cfg.Driver)
	}
}
