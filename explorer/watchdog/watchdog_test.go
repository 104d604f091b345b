package watchdog

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (f *fakePinger) Ping() error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errors.New("down")
	}
	return nil
}

func tick(t *testing.T, clock *clockwork.FakeClock, svc *fakePinger) {
	before := svc.calls.Load()
	clock.Advance(time.Second * 5)
	assert.Eventually(t, func() bool { return svc.calls.Load() > before }, time.Second, time.Millisecond*5)
}

func TestCheckFailsAfterThirtySecondsOfSilence(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := &fakePinger{}
	svc.fail.Store(true)
	stop := start(svc, clock)
	defer stop()

	assert.NoError(t, Check())
	for i := 0; i < 7; i++ {
		tick(t, clock, svc)
	}
	assert.Error(t, Check())

	svc.fail.Store(false)
	tick(t, clock, svc)
	assert.Eventually(t, func() bool { return Check() == nil }, time.Second, time.Millisecond*5)
}
