package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/prometheus/client_golang/prometheus"

	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/inbound"
	"xdao.co/nostrwire/internal/config"
	"xdao.co/nostrwire/internal/metrics"
	"xdao.co/nostrwire/message"
	"xdao.co/nostrwire/transport"
)

type filterFlags struct {
	sub     string
	kinds   string
	authors string
	limit   int
	since   int64
}

func (ff *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&ff.sub, "sub", "", "Subscription id (defaults to a random UUID)")
	fs.StringVar(&ff.kinds, "kinds", "", "Comma-separated record kinds")
	fs.StringVar(&ff.authors, "authors", "", "Comma-separated hex public keys")
	fs.IntVar(&ff.limit, "limit", 0, "Maximum number of stored records to request")
	fs.Int64Var(&ff.since, "since", 0, "Only records created at or after this unix time")
}

func (ff *filterFlags) request() (message.Req, error) {
	var f nostr.Filter
	for _, k := range splitList(ff.kinds) {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 {
			return message.Req{}, fmt.Errorf("invalid kind %q", k)
		}
		f.Kinds = append(f.Kinds, n)
	}
	for _, a := range splitList(ff.authors) {
		if _, err := event.ParsePubKey(a); err != nil {
			return message.Req{}, fmt.Errorf("invalid author %q: %w", a, err)
		}
		f.Authors = append(f.Authors, a)
	}
	if ff.limit < 0 {
		return message.Req{}, errors.New("--limit must not be negative")
	}
	f.Limit = ff.limit
	if ff.since > 0 {
		ts := nostr.Timestamp(ff.since)
		f.Since = &ts
	}
	sub := ff.sub
	if sub == "" {
		sub = uuid.NewString()
	}
	return message.NewReq(sub, f)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cmdReq(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("req", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var ff filterFlags
	ff.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	req, err := ff.request()
	if err != nil {
		fmt.Fprintf(errOut, "invalid filter: %v\n", err)
		return exitUsage
	}
	b, err := message.EncodeClientMessage(req)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return exitFailure
	}
	_, _ = fmt.Fprintln(out, string(b))
	return exitOK
}

func relayConfig(configPath, relay, mode string, errOut io.Writer) (config.Config, bool) {
	cfg, ok := loadConfig(configPath, errOut)
	if !ok {
		return config.Config{}, false
	}
	if relay != "" {
		cfg.RelayURL = relay
	}
	if !applyMode(&cfg, mode, errOut) {
		return config.Config{}, false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return config.Config{}, false
	}
	return cfg, true
}

func cmdListen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var configPath string
	var relay string
	var mode string
	var ff filterFlags

	fs.StringVar(&configPath, "config", "", "Config file (defaults to ./nostrwire.toml when present)")
	fs.StringVar(&relay, "relay", "", "Relay websocket URL (overrides config)")
	fs.StringVar(&mode, "mode", "", "Compliance mode: permissive or strict (overrides config)")
	ff.register(fs)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cfg, ok := relayConfig(configPath, relay, mode, errOut)
	if !ok {
		return exitUsage
	}
	req, err := ff.request()
	if err != nil {
		fmt.Fprintf(errOut, "invalid filter: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg, errOut)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		fmt.Fprintf(errOut, "metrics: %v\n", err)
		return exitFailure
	}
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	conn, err := transport.Dial(ctx, cfg.RelayURL, transport.Options{ReadLimit: cfg.ReadLimit})
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return exitFailure
	}
	defer conn.Close()

	b, err := message.EncodeClientMessage(req)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return exitFailure
	}
	if err := conn.Send(ctx, b); err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return exitFailure
	}
	m.ObserveOutbound(message.LabelReq)
	logger.Info().Str("relay", cfg.RelayURL).Str("sub", req.SubscriptionID).Str("mode", cfg.Mode.String()).Msg("subscribed")

	p := &inbound.Pipeline{Mode: cfg.Mode, Logger: logger, Metrics: m}
	err = p.Run(ctx, conn, func(r inbound.Result) {
		if r.Outcome != inbound.OutcomeAuthentic {
			return
		}
		line := r.Authentic.Event().AppendJSON(nil)
		_, _ = out.Write(append(line, '\n'))
	})
	if err != nil && !transport.IsClosed(err) {
		fmt.Fprintf(errOut, "%v\n", err)
		return exitFailure
	}
	return exitOK
}

func cmdPublish(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var configPath string
	var relay string
	var wait time.Duration

	fs.StringVar(&configPath, "config", "", "Config file (defaults to ./nostrwire.toml when present)")
	fs.StringVar(&relay, "relay", "", "Relay websocket URL (overrides config)")
	fs.DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the relay's reply (0 to skip)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: nostrwire publish [--config <file>] [--relay <url>] [--wait <duration>] <record.json>")
		return exitUsage
	}
	cfg, ok := relayConfig(configPath, relay, "", errOut)
	if !ok {
		return exitUsage
	}
	ev, ok := readRecord(fs.Arg(0), errOut)
	if !ok {
		return exitFailure
	}
	a, err := event.Authenticate(ev)
	if err != nil {
		fmt.Fprintf(errOut, "refusing to publish: %v\n", err)
		return exitFor(err)
	}
	b, err := message.EncodeSubmission(a)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := transport.Dial(ctx, cfg.RelayURL, transport.Options{ReadLimit: cfg.ReadLimit})
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return exitFailure
	}
	defer conn.Close()

	if err := conn.Send(ctx, b); err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return exitFailure
	}
	fmt.Fprintf(out, "Published: %s\n", a.ID())
	if wait <= 0 {
		return exitOK
	}

	rctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	reply, err := conn.Receive(rctx)
	if err != nil {
		fmt.Fprintf(errOut, "no reply: %v\n", err)
		return exitOK
	}
	fmt.Fprintf(out, "Reply: %s\n", reply)
	return exitOK
}
