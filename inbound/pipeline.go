// Package inbound turns raw relay frames into classified, authenticated
// results under a compliance mode.
package inbound

import (
	"context"

	"github.com/rs/zerolog"

	"xdao.co/nostrwire/compliance"
	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/internal/metrics"
	"xdao.co/nostrwire/message"
	"xdao.co/nostrwire/protoerr"
)

type Outcome int

const (
	OutcomeMalformed Outcome = iota + 1
	OutcomeShape
	OutcomeRecord
	OutcomeIDMismatch
	OutcomeBadSignature
	OutcomeAuthentic
	OutcomeNotice
	OutcomeUnrecognized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMalformed:
		return "malformed"
	case OutcomeShape:
		return "shape"
	case OutcomeRecord:
		return "record"
	case OutcomeIDMismatch:
		return "id_mismatch"
	case OutcomeBadSignature:
		return "bad_signature"
	case OutcomeAuthentic:
		return "authentic"
	case OutcomeNotice:
		return "notice"
	case OutcomeUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Result is the disposition of one frame.
//
// Message is nil for frames that failed classification, and for
// unauthentic records in strict mode. Authentic is valid only when Outcome
// is OutcomeAuthentic.
type Result struct {
	Outcome   Outcome
	Message   message.RelayMessage
	Authentic event.Authentic
	Err       error
}

// Dropped reports whether the frame produced nothing usable.
func (r Result) Dropped() bool { return r.Message == nil }

// Pipeline is stateless apart from its counters and is safe for concurrent
// use. The zero Logger discards output; a nil Metrics counts nothing.
type Pipeline struct {
	Mode    compliance.ComplianceMode
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Process classifies frame and, for records, authenticates them.
func (p *Pipeline) Process(frame []byte) Result {
	res := p.process(frame)
	p.Metrics.ObserveFrame(res.Outcome.String(), p.Mode.String())
	return res
}

func (p *Pipeline) process(frame []byte) Result {
	msg, err := message.ParseRelayMessage(frame)
	if err != nil {
		outcome := OutcomeMalformed
		switch protoerr.KindOf(err) {
		case protoerr.KindShape:
			outcome = OutcomeShape
		case protoerr.KindRecord:
			outcome = OutcomeRecord
		}
		p.Logger.Debug().
			Str("outcome", outcome.String()).
			Str("rule", protoerr.RuleID(err)).
			Int("bytes", len(frame)).
			Err(err).
			Msg("frame rejected")
		return Result{Outcome: outcome, Err: err}
	}

	switch m := msg.(type) {
	case message.Notice:
		p.Logger.Info().Str("notice", m.Message).Msg("relay notice")
		return Result{Outcome: OutcomeNotice, Message: m}
	case message.RelayEvent:
		return p.authenticate(m)
	default:
		p.Logger.Debug().Str("label", msg.MessageLabel()).Msg("unrecognized message")
		return Result{Outcome: OutcomeUnrecognized, Message: msg}
	}
}

func (p *Pipeline) authenticate(m message.RelayEvent) Result {
	a, err := event.Authenticate(m.Event)
	if err == nil {
		return Result{Outcome: OutcomeAuthentic, Message: m, Authentic: a}
	}

	outcome := OutcomeBadSignature
	if protoerr.IsKind(err, protoerr.KindIdentifier) {
		outcome = OutcomeIDMismatch
	}
	p.Logger.Warn().
		Str("outcome", outcome.String()).
		Str("rule", protoerr.RuleID(err)).
		Str("subscription", m.SubscriptionID).
		Str("id", m.Event.ID.String()).
		Str("pubkey", m.Event.PubKey.String()).
		Bool("dropped", p.Mode.DropsUnauthentic()).
		Msg("unauthentic record")

	res := Result{Outcome: outcome, Err: err}
	if !p.Mode.DropsUnauthentic() {
		res.Message = m
	}
	return res
}

// Source yields raw frames; transport.Conn satisfies it.
type Source interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Run feeds frames from src through Process until ctx is done or src fails.
// Cancellation returns nil.
func (p *Pipeline) Run(ctx context.Context, src Source, handle func(Result)) error {
	for {
		frame, err := src.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		handle(p.Process(frame))
	}
}
