package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
	clonelog "github.com/gxo-labs/deepclone/pkg/deepclone/v1/log"

	"github.com/gxo-labs/deepclone/internal/config"
	"github.com/gxo-labs/deepclone/internal/engine"
	"github.com/gxo-labs/deepclone/internal/events"
	"github.com/gxo-labs/deepclone/internal/logger"
	"github.com/gxo-labs/deepclone/internal/metrics"
	"github.com/gxo-labs/deepclone/internal/tracing"
)

const (
	ExitSuccess         = 0
	ExitFailure         = 1
	ExitUsageError      = 2
	ExitSigIntBase      = 128
	ExitSigInt          = ExitSigIntBase + int(syscall.SIGINT)
	DefaultLogLevel     = "info"
	DefaultLogFmt       = "text"
	DefaultEventBusSize = 4096
	DefaultBenchRounds  = 1000
	DefaultBenchFanout  = 16
	shutdownGracePeriod = 5 * time.Second
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(ExitUsageError)
	}
	switch os.Args[1] {
	case "validate":
		os.Exit(runValidateCommand(os.Args[2:]))
	case "types":
		os.Exit(runTypesCommand(os.Args[2:]))
	case "bench":
		os.Exit(runBenchCommand(os.Args[2:]))
	case "--version", "-version", "version":
		printVersion()
		os.Exit(ExitSuccess)
	default:
		usage()
		os.Exit(ExitUsageError)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags...]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  validate  Validate a clone policy file and resolve its type names")
	fmt.Fprintln(os.Stderr, "  types     List the type names clone policies may refer to")
	fmt.Fprintln(os.Stderr, "  bench     Clone a sample object graph repeatedly and report metrics")
	fmt.Fprintln(os.Stderr, "  version   Print version information")
}

func printVersion() {
	fmt.Printf("deepclone version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runValidateCommand(args []string) int {
	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	policyPath := validateFlags.String("policy", "", "Path to the clone policy YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level for validation output (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -policy <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure, schema version and type names of a clone policy.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}
	if err := validateFlags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing validate flags: %v\n", err)
		return ExitUsageError
	}
	if *policyPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -policy flag is required for validation")
		validateFlags.Usage()
		return ExitUsageError
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating clone policy: %s", *policyPath)

	policy, err := config.LoadPolicyFromFile(*policyPath)
	if err == nil {
		var e *engine.Engine
		if e, err = engine.New(v1.WithLogger(log)); err == nil {
			_, err = config.Resolve(policy, e.TypeRegistry())
		}
	}
	if err != nil {
		reportPolicyError(log, err)
		return ExitFailure
	}

	log.Infof("Clone policy validation successful: %s", *policyPath)
	return ExitSuccess
}

func reportPolicyError(log clonelog.Logger, err error) {
	var validationErr *cloneerrors.ValidationError
	var configErr *cloneerrors.ConfigError
	if errors.As(err, &validationErr) {
		log.Errorf("Clone policy validation failed:\n%s", validationErr.Error())
	} else if errors.As(err, &configErr) {
		log.Errorf("Clone policy configuration error:\n%s", configErr.Error())
	} else {
		log.Errorf("Failed to load or validate clone policy: %v", err)
	}
}

func runTypesCommand(args []string) int {
	typesFlags := flag.NewFlagSet("types", flag.ExitOnError)
	if err := typesFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	e, err := engine.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create clone engine: %v\n", err)
		return ExitFailure
	}
	for _, name := range e.TypeRegistry().Names() {
		fmt.Println(name)
	}
	return ExitSuccess
}

func runBenchCommand(args []string) int {
	benchFlags := flag.NewFlagSet("bench", flag.ExitOnError)
	policyPath := benchFlags.String("policy", "", "Optional clone policy YAML file to apply")
	logLevel := benchFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := benchFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")
	rounds := benchFlags.Int("rounds", DefaultBenchRounds, "Number of deep clones to run")
	fanout := benchFlags.Int("fanout", DefaultBenchFanout, "Number of line items in the sample graph")
	accessor := benchFlags.String("accessor", "", "Field accessor (auto, offset, reflection); defaults to $DEEPCLONE_ACCESSOR")

	benchFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s bench [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Deep clones a sample order graph and prints the engine counters.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		benchFlags.PrintDefaults()
	}
	if err := benchFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if *rounds <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: -rounds must be positive, defaulting to %d\n", DefaultBenchRounds)
		*rounds = DefaultBenchRounds
	}

	log := logger.NewLogger(*logLevel, *logFormat, os.Stderr).With("deepclone_version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Stopping benchmark...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	eventBus := events.NewChannelEventBus(DefaultEventBusSize, log)
	metricsProvider := metrics.NewPrometheusRegistryProvider()
	tracerProvider := tracing.NewProviderFromEnv(ctx, log)

	opts := []v1.ClonerOption{
		v1.WithLogger(log),
		v1.WithEventBus(eventBus),
		v1.WithMetricsRegistryProvider(metricsProvider),
		v1.WithTracerProvider(tracerProvider),
	}
	if *accessor != "" {
		opts = append(opts, v1.WithAccessor(*accessor))
	}
	if *policyPath != "" {
		policy, err := config.LoadPolicyFromFile(*policyPath)
		if err != nil {
			reportPolicyError(log, err)
			return ExitFailure
		}
		opts = append(opts, v1.WithPolicy(policy))
	}

	e, err := engine.New(opts...)
	if err != nil {
		log.Errorf("Failed to create clone engine: %v", err)
		return ExitFailure
	}

	listener := events.NewMetricsEventListener(eventBus, e.Counters(), log)
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		listener.Start(ctx)
	}()

	sample := newSampleOrder(*fanout)
	log.Infof("Cloning sample graph %d times (accessor=%s)...", *rounds, e.Accessor().Name())
	start := time.Now()
	completed := 0
	var cloneErr error
	for completed < *rounds && ctx.Err() == nil {
		if _, cloneErr = e.DeepCloneContext(ctx, sample); cloneErr != nil {
			break
		}
		completed++
	}
	elapsed := time.Since(start)

	eventBus.Close()
	<-listenerDone

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancelShutdown()
	if shutdownErr := tracerProvider.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warnf("Error shutting down tracer provider: %v", shutdownErr)
	}

	printCounters(log, metricsProvider)
	if cloneErr != nil {
		log.Errorf("Benchmark stopped after %d clones: %v", completed, cloneErr)
		return ExitFailure
	}
	if completed < *rounds {
		log.Warnf("Benchmark interrupted after %d of %d clones.", completed, *rounds)
		return ExitSigInt
	}
	perClone := time.Duration(0)
	if completed > 0 {
		perClone = elapsed / time.Duration(completed)
	}
	log.Infof("Cloned %d graphs in %v (%v per clone).", completed, elapsed.Truncate(time.Microsecond), perClone)
	return ExitSuccess
}

func printCounters(log clonelog.Logger, provider *metrics.PrometheusRegistryProvider) {
	families, err := provider.Registry().Gather()
	if err != nil {
		log.Warnf("Failed to gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			log.Infof("%s{%s} %v", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
