// Command fakebackend serves an in-memory version of the weather-analysis
// API for local development against skywatch.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amishk599/skywatch/internal/fakebackend"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	username := flag.String("username", "", "accepted EarthAccess username (empty accepts any)")
	password := flag.String("password", "", "accepted EarthAccess password")
	loggedIn := flag.Bool("logged-in", false, "start with an EarthAccess session")
	fail := flag.Bool("fail", false, "fail every job at the last stage")
	failMessage := flag.String("fail-message", "", "error message for failed jobs")
	flaky := flag.Int("flaky", 0, "answer every Nth progress query with a 500 (0 disables)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	fake := fakebackend.New(fakebackend.Options{
		Username:    *username,
		Password:    *password,
		LoggedIn:    *loggedIn,
		FailJobs:    *fail,
		FailMessage: *failMessage,
		FlakyEvery:  *flaky,
	}, logger)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      fake,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("fake backend listening", "addr", *addr, "api", "/api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("goodbye")
}
