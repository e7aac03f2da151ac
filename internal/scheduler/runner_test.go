// internal/scheduler/runner_test.go
package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// lockedTransport guards fakeTransport for use across the loop goroutine.
type lockedTransport struct {
	mu sync.Mutex
	fakeTransport
}

func (l *lockedTransport) Send(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fakeTransport.Send(b)
}

func waitFor(t *testing.T, reports <-chan Report, match func(Report) bool) Report {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case r := <-reports:
			if match(r) {
				return r
			}
		case <-timeout:
			t.Fatal("timed out waiting for report")
			return Report{}
		}
	}
}

func TestRun_PriorityExpiresThroughTimer(t *testing.T) {
	p := testPolicy(msg("m0", time.Hour), msg("m1", time.Hour))
	s, _, clk := newTestScheduler(t, p)
	tr := &lockedTransport{}
	s.out.tr = tr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	waitFor(t, s.Reports(), func(r Report) bool { return r.Cursor.State == StateRotatingOffline })

	require.NoError(t, s.Submit(ctx, ShowPriority{Text: "go", Duration: 3 * time.Second}))
	waitFor(t, s.Reports(), func(r Report) bool { return r.Cursor.State == StatePriorityActive })

	// Loop re-arms a single timer for the warning deadline.
	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	clk.Advance(500 * time.Millisecond)
	waitFor(t, s.Reports(), func(r Report) bool { return r.Kind == ReportWarning })

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	clk.Advance(2500 * time.Millisecond)
	r := waitFor(t, s.Reports(), func(r Report) bool { return r.Cursor.State == StateRotatingOffline })
	assert.Equal(t, 0, r.Cursor.Index)

	// Cancel is idempotent through the loop too.
	require.NoError(t, s.Submit(ctx, CancelPriority{}))

	err := s.Submit(ctx, ShowPriority{Text: "\x01"})
	assert.Error(t, err)

	cancel()
	<-done

	assert.ErrorIs(t, s.Submit(ctx, SyncTime{}), context.Canceled)
}
