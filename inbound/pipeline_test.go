package inbound

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/nostrwire/compliance"
	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/internal/metrics"
	"xdao.co/nostrwire/keys"
	"xdao.co/nostrwire/message"
	"xdao.co/nostrwire/protoerr"
)

const (
	goldenID  = "da7d89bc06080d60ae537ff0285b51f7a5e15e63eb3c21a0c37c76edbbe24255"
	goldenPub = "b708f7392f588406212c3882e7b3bc0d9b08d62f95fa170d099127ece2770e5e"
	goldenSig = "d706fb48dbdd4fe272a006ee7f9fe74416a603cdfbb253dd82f1dc6bcea3cfe79334abb034701747941819878b31b28753a6dd38c4cda9c82453bf676ea2ba38"
)

func record(id, content, sig string) string {
	return `{"id":"` + id + `","pubkey":"` + goldenPub + `","created_at":1672310253,"kind":1,"tags":[],"content":"` + content + `","sig":"` + sig + `"}`
}

func goldenFrame() []byte {
	return []byte(`["EVENT","sub",` + record(goldenID, "imagine all the unfettered conversations \U0001F62F", goldenSig) + `]`)
}

func tamperedContentFrame() []byte {
	return []byte(`["EVENT","sub",` + record(goldenID, "imagine all the unfettered conversations!", goldenSig) + `]`)
}

func badSigFrame() []byte {
	sig := []byte(goldenSig)
	if sig[10] == '0' {
		sig[10] = '1'
	} else {
		sig[10] = '0'
	}
	return []byte(`["EVENT","sub",` + record(goldenID, "imagine all the unfettered conversations \U0001F62F", string(sig)) + `]`)
}

func newPipeline(t *testing.T, mode compliance.ComplianceMode) (*Pipeline, *bytes.Buffer, *metrics.Metrics) {
	t.Helper()
	var buf bytes.Buffer
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return &Pipeline{
		Mode:    mode,
		Logger:  zerolog.New(&buf).Level(zerolog.DebugLevel),
		Metrics: m,
	}, &buf, m
}

func TestProcess_Authentic(t *testing.T) {
	for _, mode := range []compliance.ComplianceMode{compliance.Strict, compliance.Permissive} {
		p, logs, m := newPipeline(t, mode)
		res := p.Process(goldenFrame())

		require.Equal(t, OutcomeAuthentic, res.Outcome, mode.String())
		require.NoError(t, res.Err)
		assert.False(t, res.Dropped())
		assert.True(t, res.Authentic.Valid())
		assert.Equal(t, goldenID, res.Authentic.ID().String())
		assert.Equal(t, "sub", res.Message.(message.RelayEvent).SubscriptionID)
		assert.NotContains(t, logs.String(), `"level":"warn"`)
		assert.Equal(t, float64(1), m.FrameCount("authentic", mode.String()))
	}
}

func TestProcess_UnauthenticStrictDrops(t *testing.T) {
	cases := []struct {
		name    string
		frame   []byte
		outcome Outcome
		kind    protoerr.Kind
	}{
		{"tampered content", tamperedContentFrame(), OutcomeIDMismatch, protoerr.KindIdentifier},
		{"flipped signature", badSigFrame(), OutcomeBadSignature, protoerr.KindSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, logs, m := newPipeline(t, compliance.Strict)
			res := p.Process(tc.frame)

			assert.Equal(t, tc.outcome, res.Outcome)
			assert.True(t, res.Dropped())
			assert.Nil(t, res.Message)
			assert.False(t, res.Authentic.Valid())
			assert.True(t, protoerr.IsKind(res.Err, tc.kind))
			assert.Contains(t, logs.String(), `"level":"warn"`)
			assert.Contains(t, logs.String(), `"dropped":true`)
			assert.Equal(t, float64(1), m.FrameCount(tc.outcome.String(), "strict"))
		})
	}
}

func TestProcess_UnauthenticPermissiveKeepsMessage(t *testing.T) {
	p, logs, _ := newPipeline(t, compliance.Permissive)
	res := p.Process(tamperedContentFrame())

	assert.Equal(t, OutcomeIDMismatch, res.Outcome)
	require.NotNil(t, res.Message)
	assert.False(t, res.Authentic.Valid())
	assert.Error(t, res.Err)
	assert.Contains(t, logs.String(), `"dropped":false`)
}

func TestProcess_NonRecordOutcomes(t *testing.T) {
	cases := []struct {
		frame   string
		outcome Outcome
		dropped bool
	}{
		{`not json`, OutcomeMalformed, true},
		{`["EVENT","sub"]`, OutcomeRecord, true},
		{`["EVENT","sub",{"id":"zz"}]`, OutcomeRecord, true},
		{`["EVENT",1,{}]`, OutcomeShape, true},
		{`["NOTICE","slow down"]`, OutcomeNotice, false},
		{`["EOSE","sub"]`, OutcomeUnrecognized, false},
		{`{"x":1}`, OutcomeUnrecognized, false},
	}
	for _, tc := range cases {
		p, logs, _ := newPipeline(t, compliance.Strict)
		res := p.Process([]byte(tc.frame))
		assert.Equal(t, tc.outcome, res.Outcome, tc.frame)
		assert.Equal(t, tc.dropped, res.Dropped(), tc.frame)
		assert.False(t, res.Authentic.Valid(), tc.frame)
		assert.NotContains(t, logs.String(), `"level":"warn"`, tc.frame)
	}
}

func TestProcess_ZeroValuePipeline(t *testing.T) {
	var p Pipeline
	res := p.Process(goldenFrame())
	assert.Equal(t, OutcomeAuthentic, res.Outcome)

	res = p.Process(tamperedContentFrame())
	assert.Equal(t, OutcomeIDMismatch, res.Outcome)
	assert.NotNil(t, res.Message, "zero mode is permissive")
}

func TestProcess_Concurrent(t *testing.T) {
	p, _, m := newPipeline(t, compliance.Strict)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				p.Process(goldenFrame())
				p.Process(badSigFrame())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, float64(80), m.FrameCount("authentic", "strict"))
	assert.Equal(t, float64(80), m.FrameCount("bad_signature", "strict"))
}

type sliceSource struct {
	frames [][]byte
	end    error
}

func (s *sliceSource) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.frames) == 0 {
		return nil, s.end
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func TestRun(t *testing.T) {
	p, _, _ := newPipeline(t, compliance.Strict)
	src := &sliceSource{frames: [][]byte{goldenFrame(), badSigFrame(), []byte(`["NOTICE","hi"]`)}, end: io.EOF}

	var got []Outcome
	err := p.Run(context.Background(), src, func(r Result) { got = append(got, r.Outcome) })
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, []Outcome{OutcomeAuthentic, OutcomeBadSignature, OutcomeNotice}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Run(ctx, &sliceSource{end: io.EOF}, func(Result) { t.Fatalf("no frames expected") })
	assert.NoError(t, err)
}

func TestOutcomeNames(t *testing.T) {
	seen := map[string]bool{}
	for o := OutcomeMalformed; o <= OutcomeUnrecognized; o++ {
		name := o.String()
		assert.False(t, seen[name], name)
		assert.False(t, strings.Contains(name, " "), name)
		seen[name] = true
	}
	assert.Equal(t, "unknown", Outcome(0).String())
}

func TestProcess_FinalizedRecord(t *testing.T) {
	a := mustFinalize(t)
	b, err := message.EncodeRelayMessage(message.RelayEvent{SubscriptionID: "s", Event: a.Event()})
	require.NoError(t, err)

	p, _, _ := newPipeline(t, compliance.Strict)
	res := p.Process(b)
	require.Equal(t, OutcomeAuthentic, res.Outcome)
	assert.Equal(t, a.ID(), res.Authentic.ID())
}

func mustFinalize(t *testing.T) event.Authentic {
	t.Helper()
	a, err := event.Finalize(event.Draft{
		CreatedAt: 1700000000,
		Kind:      1,
		Tags:      event.Tags{{"t", "go"}},
		Content:   "line\nwith \"quotes\" and  ",
	}, newTestSigner(t))
	require.NoError(t, err)
	return a
}

func newTestSigner(t *testing.T) keys.Signer {
	t.Helper()
	sk, _, err := keys.GenerateKeypair(rand.Reader)
	require.NoError(t, err)
	return keys.NewSigner(sk, nil)
}
