// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cfg "github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeReader replays one chunk per Read; an exhausted script is silence.
type fakeReader struct {
	chunks [][]byte
	err    error
}

func (f *fakeReader) Read(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(f.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, f.chunks[0])
	f.chunks = f.chunks[1:]
	return n, nil
}

func newPoller(t *testing.T, r Reader, clock clockwork.Clock) *Poller {
	t.Helper()
	p, err := New(Config{SignID: "s1", Interval: time.Second}, r, clock)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Interval: time.Second}, &fakeReader{}, nil)
	assert.Error(t, err)
	_, err = New(Config{SignID: "s1"}, &fakeReader{}, nil)
	assert.Error(t, err)
	_, err = New(Config{SignID: "s1", Interval: time.Second}, nil, nil)
	assert.Error(t, err)
}

func TestPollOnce_Ack(t *testing.T) {
	p := newPoller(t, &fakeReader{chunks: [][]byte{{protocol.ACK}}}, clockwork.NewFakeClock())

	res := p.PollOnce()
	require.NoError(t, res.Err)
	assert.Equal(t, protocol.AckOK, res.Ack.Kind)
	assert.Equal(t, "s1", res.SignID)
	assert.True(t, res.Notable())
}

func TestPollOnce_NakMapsToErr(t *testing.T) {
	p := newPoller(t, &fakeReader{chunks: [][]byte{{0, 0, protocol.NAK}}}, clockwork.NewFakeClock())

	res := p.PollOnce()
	require.NoError(t, res.Err)
	assert.ErrorIs(t, res.Ack.Err(), protocol.ErrNAK)
}

func TestPollOnce_Silence(t *testing.T) {
	p := newPoller(t, &fakeReader{}, clockwork.NewFakeClock())

	res := p.PollOnce()
	assert.NoError(t, res.Err)
	assert.Equal(t, protocol.AckNone, res.Ack.Kind)
	assert.False(t, res.Notable())
}

func TestPollOnce_Failure(t *testing.T) {
	p := newPoller(t, &fakeReader{err: errors.New("link down")}, clockwork.NewFakeClock())

	res := p.PollOnce()
	assert.Error(t, res.Err)
	assert.True(t, res.Notable())
}

func TestRun_EmitsOnlyNotable(t *testing.T) {
	clk := clockwork.NewFakeClock()
	p := newPoller(t, &fakeReader{chunks: [][]byte{{}, {protocol.ACK}}}, clk)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan PollResult, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, out)
	}()

	require.NoError(t, clk.BlockUntilContext(ctx, 1))

	// Ticks the loop is still busy with are dropped, so keep advancing
	// until the ack surfaces. The silent read before it must not.
	deadline := time.After(2 * time.Second)
	var res PollResult
wait:
	for {
		clk.Advance(time.Second)
		select {
		case res = <-out:
			break wait
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("no result emitted")
		}
	}
	assert.Equal(t, protocol.AckOK, res.Ack.Kind)

	cancel()
	<-done
	assert.Empty(t, out)
}

func TestBuild_DisabledWithoutInterval(t *testing.T) {
	c := cfg.Default()
	p, err := Build(&c, &fakeReader{}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	c.Transport.AckPoll = 500 * time.Millisecond
	p, err = Build(&c, &fakeReader{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
