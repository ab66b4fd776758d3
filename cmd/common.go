package cmd

import (
	"context"
	"fmt"
	"time"

	"firestige.xyz/dsdriver/internal/config"
	"firestige.xyz/dsdriver/internal/driver"
	"firestige.xyz/dsdriver/internal/log"
	"firestige.xyz/dsdriver/internal/sink"
	"firestige.xyz/dsdriver/internal/timer"
	"firestige.xyz/dsdriver/internal/tracked"
	"firestige.xyz/dsdriver/internal/transport"
)

// result carries a ResultCallback's outcome across the goroutine boundary
// between a Source's dispatch loop and the command blocking on it.
type result struct {
	ok  bool
	msg string
}

// loadConfigOrExit reads the config file named by --config, applies an
// explicit --log-level override if given, and initializes the global
// logger from it, matching start.go's config-then-boot ordering.
func loadConfigOrExit() *config.DriverConfig {
	cfg, err := config.Load(configFile)
	if err != nil {
		exitWithError("failed to load config", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log.Init(&log.LoggerConfig{
		Pattern: cfg.Log.Pattern,
		Time:    cfg.Log.Time,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	return cfg
}

// connectSource dials the configured transport and builds a Source with
// every capability enabled. The CLI exposes the full lifecycle regardless
// of what any particular remote source actually supports — the remote is
// the one that rejects an unsupported verb via its own response.
func connectSource(cfg *config.DriverConfig, chain sink.Chain) (*driver.Source, *transport.Manager, error) {
	mgr := transport.NewManager(transport.Config{
		Mode:        cfg.Transport.Mode,
		Address:     cfg.Transport.Address,
		Listen:      cfg.Transport.Listen,
		DialTimeout: cfg.Transport.Dial,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Transport.Dial)
	defer cancel()
	stream, err := mgr.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect transport: %w", err)
	}

	caps := driver.CapList | driver.CapProbe | driver.CapLocal | driver.CapTune
	src := driver.NewSource(caps, stream, chain, log.GetLogger(), timer.New(), seedSequence())
	src.SetRetryPolicy(driver.RetryPolicy{
		Backoff:     cfg.Source.Retry.Backoff,
		MaxAttempts: cfg.Source.Retry.MaxAttempts,
	})
	return src, mgr, nil
}

// definitionOrExit resolves the definition string a lifecycle operation
// needs: the positional arg if given, otherwise the config file's
// source.definition as an operator-pinned default. Exits if neither is
// present.
func definitionOrExit(cfg *config.DriverConfig, args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	if cfg.Source.Definition != "" {
		return cfg.Source.Definition
	}
	exitWithError("definition", fmt.Errorf("no definition given and source.definition is not configured"))
	return ""
}

// seedSequence picks the command tracker's starting sequence, per spec
// §4.3's "process-wide monotonic counter seeded with a random value".
func seedSequence() uint32 {
	return uint32(time.Now().UnixNano())
}

// printResult prints a lifecycle operation's outcome followed by the
// source's observable state, formatted through internal/tracked the same
// way a future status dashboard would consume it.
func printResult(ok bool, message string, state driver.State) {
	if ok {
		fmt.Println("OK")
	} else {
		fmt.Printf("FAILED: %s\n", message)
	}
	fmt.Println(tracked.String(tracked.Snapshot(state)))
}
