package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"mcping/internal/addrutil"
	"mcping/internal/config"
	"mcping/internal/group"
	"mcping/internal/metrics"
	"mcping/internal/prober"
	"mcping/internal/responder"
)

const usage = `mcping - IPv6 multicast reachability and latency probe

Usage:
  mcping respond [--config <path>] [--group <addr>] [--port <n>] [--interface <name>] [--log-level <lvl>]
  mcping probe   [--config <path>] [--group <addr>] [--port <n>] [--interface <name>]
                 [--interval <ms>] [--timeout <ms>] [--count <n>] [--metrics-path <file>] [--log-level <lvl>]
  mcping stats   --metrics-path <file> [--window <duration>]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "respond":
		handleRespond(os.Args[2:])
	case "probe":
		handleProbe(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func handleRespond(args []string) {
	fs := flag.NewFlagSet("respond", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	groupAddr := fs.String("group", "", "multicast group address")
	port := fs.Int("port", 0, "group port")
	ifName := fs.String("interface", "", "interface to join the group on")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if cfg.Responder == nil {
		cfg.Responder = &config.ResponderConfig{}
	}
	if *groupAddr != "" {
		cfg.Responder.Group = *groupAddr
	}
	if *port != 0 {
		cfg.Responder.Port = *port
	}
	if *ifName != "" {
		cfg.Responder.Interface = *ifName
	}
	if *logLevel != "" {
		cfg.Responder.LogLevel = *logLevel
	}
	config.ApplyDefaults(&cfg)
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	log := config.NewLogger(cfg.Responder.LogLevel)
	groupIP, err := addrutil.ParseGroup(cfg.Responder.Group)
	if err != nil {
		fatal(err)
	}

	sock, err := group.Listen(groupIP, cfg.Responder.Port, cfg.Responder.Interface)
	if err != nil {
		fatal(err)
	}
	defer sock.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// Closing the socket unblocks a receive in flight when the signal lands.
	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	log.WithFields(logrus.Fields{
		"group": groupIP.String(),
		"port":  cfg.Responder.Port,
	}).Info("responder listening")

	if err := responder.New(sock, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
	log.Info("responder stopped")
}

func handleProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	groupAddr := fs.String("group", "", "multicast group address")
	port := fs.Int("port", 0, "group port")
	ifName := fs.String("interface", "", "interface to join the group on")
	interval := fs.Int("interval", 0, "request interval in ms")
	timeout := fs.Int("timeout", 0, "per-request wait bound in ms")
	count := fs.Int("count", 0, "number of requests; 0 means until interrupted")
	metricsPath := fs.String("metrics-path", "", "CSV file for per-iteration samples")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if cfg.Prober == nil {
		cfg.Prober = &config.ProberConfig{}
	}
	if *groupAddr != "" {
		cfg.Prober.Group = *groupAddr
	}
	if *port != 0 {
		cfg.Prober.Port = *port
	}
	if *ifName != "" {
		cfg.Prober.Interface = *ifName
	}
	if *interval != 0 {
		cfg.Prober.IntervalMS = *interval
	}
	if *timeout != 0 {
		cfg.Prober.TimeoutMS = *timeout
	}
	if *count != 0 {
		cfg.Prober.Count = *count
	}
	if *metricsPath != "" {
		cfg.Prober.MetricsPath = *metricsPath
	}
	if *logLevel != "" {
		cfg.Prober.LogLevel = *logLevel
	}
	config.ApplyDefaults(&cfg)
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	log := config.NewLogger(cfg.Prober.LogLevel)
	groupIP, err := addrutil.ParseGroup(cfg.Prober.Group)
	if err != nil {
		fatal(err)
	}

	sock, err := group.Dial(groupIP, cfg.Prober.Port, cfg.Prober.Interface)
	if err != nil {
		fatal(err)
	}
	defer sock.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	log.WithFields(logrus.Fields{
		"group":    groupIP.String(),
		"port":     cfg.Prober.Port,
		"interval": time.Duration(cfg.Prober.IntervalMS) * time.Millisecond,
		"timeout":  time.Duration(cfg.Prober.TimeoutMS) * time.Millisecond,
	}).Info("probing group")

	session := metrics.NewSession()
	p := prober.New(sock, prober.Config{
		Interval:    time.Duration(cfg.Prober.IntervalMS) * time.Millisecond,
		Timeout:     time.Duration(cfg.Prober.TimeoutMS) * time.Millisecond,
		Count:       cfg.Prober.Count,
		MetricsPath: cfg.Prober.MetricsPath,
	}, session, log)

	err = p.Run(ctx)
	p.Report()
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	metricsPath := fs.String("metrics-path", "", "metrics CSV path override")
	window := fs.Duration("window", 5*time.Minute, "time window")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}

	path := *metricsPath
	if path == "" && cfg.Prober != nil {
		path = cfg.Prober.MetricsPath
	}
	if path == "" {
		fatal(errors.New("metrics path required"))
	}

	items, err := metrics.ReadCSV(path)
	if err != nil {
		fatal(err)
	}

	cutoff := time.Now().UTC().Add(-*window)
	summary := metrics.Summarize(items, cutoff)
	if summary.Count == 0 {
		fmt.Fprintln(os.Stdout, "no samples in window")
		return
	}

	fmt.Fprintf(os.Stdout, "samples=%d from=%s to=%s\n",
		summary.Count, summary.From.Format(time.RFC3339), summary.To.Format(time.RFC3339))
	fmt.Fprintf(os.Stdout, "delivered=%d loss=%.2f%%\n", summary.Received, summary.LossPct)
	if summary.Received > 0 {
		fmt.Fprintf(os.Stdout, "rtt avg=%.2fms p95=%.2fms min=%.2fms max=%.2fms\n",
			summary.AvgRTTMs, summary.P95RTTMs, summary.MinRTTMs, summary.MaxRTTMs)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	return config.Load(path)
}

func fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
