// Fake platform server for running suites locally
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"metrosmoke/pkg/config"
	"metrosmoke/pkg/fakebackend"
	"metrosmoke/pkg/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8081", "Listen address")
	anonKey := flag.String("anon-key", os.Getenv("METRO_ANON_KEY"), "Accepted anon apikey (empty accepts any)")
	serviceKey := flag.String("service-key", os.Getenv("METRO_SERVICE_KEY"), "Accepted service apikey")
	users := flag.String("users", defaultUsers(), "Seeded accounts, comma separated email:password")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.NewWithWriter(config.LoggingConfig{Level: *logLevel, Format: config.FormatText}, os.Stderr)
	slog.SetDefault(logger)

	fb := fakebackend.New(fakebackend.Options{
		AnonKey:    *anonKey,
		ServiceKey: *serviceKey,
		Users:      parseUsers(*users),
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           fb.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting fake backend", "addr", *addr)
	logger.Info("Endpoints available",
		"auth", "/auth/v1/signup, /auth/v1/token?grant_type=password",
		"rest", "/rest/v1/stations, /rest/v1/profiles",
		"functions", "/functions/v1/create-payment-intent")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// defaultUsers seeds the demo account when METRO_TEST_PASSWORD is set
func defaultUsers() string {
	password := os.Getenv("METRO_TEST_PASSWORD")
	if password == "" {
		return ""
	}
	return "demo@metromar.com:" + password
}

func parseUsers(spec string) []fakebackend.User {
	var users []fakebackend.User
	for _, entry := range strings.Split(spec, ",") {
		email, password, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || email == "" {
			continue
		}
		users = append(users, fakebackend.User{Email: email, Password: password})
	}
	return users
}
