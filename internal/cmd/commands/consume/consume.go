package consume

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/pkg/events"
)

type Command struct {
	*base.Command

	flagConfig    string
	flagFromStart bool
	flagVerbose   bool
}

func (c *Command) Synopsis() string {
	return "Sync items as item events arrive from Redpanda"
}

func (c *Command) Help() string {
	return `Usage: contentsync consume [options]

  This command consumes item.saved and item.deleted events and syncs each
  affected item until it receives SIGINT or SIGTERM.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("consume", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsync config file",
	)
	f.BoolVar(
		&c.flagFromStart, "from-start", false,
		"Read the topic from the beginning when the consumer group is new.",
	)
	f.BoolVar(
		&c.flagVerbose, "verbose", false,
		"Enable debug logging.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	env, err := c.NewEnv(ctx, c.flagConfig, c.flagVerbose)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	defer env.Close()

	if env.Config.Redpanda == nil {
		ui.Error("redpanda configuration is missing")
		return 1
	}

	consumer, err := events.NewConsumer(events.ConsumerConfig{
		Brokers:          env.Config.Redpanda.Brokers,
		Topic:            env.Config.Redpanda.Topic,
		ConsumerGroup:    env.Config.Redpanda.ConsumerGroup,
		ConsumeFromStart: c.flagFromStart,
		Handler:          events.NewSyncHandler(env.Factory, env.Store, logger.Named("events")),
		Logger:           logger,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("failed to create consumer: %v", err))
		return 1
	}
	defer consumer.Stop()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		ui.Error(fmt.Sprintf("consumer failed: %v", err))
		return 1
	}

	logger.Info("consumer stopped gracefully")
	return 0
}
