// Command lifetime-demo opens an SDL2 window and drives it with the frame loop, clearing each
// swapchain image to a shifting color while allocating per-frame descriptor sets.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/config"
)

func newLogger(options config.LogConfig) (*slog.Logger, error) {
	level, err := log.ParseLevel(options.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "bad log level %q", options.Level)
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "lifetime",
		Level:           level,
	})
	return slog.New(handler), nil
}

func main() {
	// SDL and the Vulkan surface must stay on the main thread
	runtime.LockOSThread()

	configPath := flag.String("config", "", "path to a TOML configuration file")
	validation := flag.Bool("validation", false, "enable VK_LAYER_KHRONOS_validation")
	flag.Parse()

	options := config.Default()
	if *configPath != "" {
		var err error
		options, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("failed to load configuration", "error", err)
		}
	}

	logger, err := newLogger(options.Log)
	if err != nil {
		log.Fatal("failed to create logger", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, logger, options, *validation)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("demo failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
