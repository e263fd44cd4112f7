package ipcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/yaotthaha/ipcheck/core"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/option"

	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the service",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run())
	},
}

func init() {
	mainCommand.AddCommand(runCommand)
}

func run() int {
	options, err := option.ReadFile(paramConfig)
	if err != nil {
		log.DefaultSimpleLogger.Fatal(fmt.Sprintf("read config fail: %s", err))
		return 1
	}
	logger, closer, err := newLogger(options.LogOptions)
	if err != nil {
		log.DefaultSimpleLogger.Fatal(err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, err := core.New(ctx, logger, *options)
	if err != nil {
		logger.Fatal(err)
		return 1
	}
	go notifySignal(logger, cancel)
	err = c.Run()
	if err != nil {
		logger.Fatal(err)
		return 1
	}
	return 0
}

func newLogger(options option.LogOptions) (*log.SimpleLogger, io.Closer, error) {
	logger := log.NewLogger()
	if options.Disabled {
		logger.SetOutput(io.Discard)
		return logger, nil, nil
	}
	level, err := log.ParseLevel(options.Level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)
	if options.Debug {
		logger.SetDebug(true)
	}
	if options.DisableTimestamp {
		logger.SetFormatFunc(log.DisableTimestampFormatFunc)
	}
	if options.File == "" {
		logger.SetColor(options.Color)
		return logger, nil, nil
	}
	f, err := os.OpenFile(options.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)
	return logger, f, nil
}

func notifySignal(logger log.Logger, cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalChan
	logger.Warn(fmt.Sprintf("receive signal %s, exiting...", sig))
	cancel()
}
