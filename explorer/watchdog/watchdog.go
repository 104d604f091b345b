package watchdog

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/podlake/explorer/explorer/utils/logger"
)

type pinger interface {
	Ping() error
}

var (
	mtx                 sync.Mutex
	clock               = clockwork.NewRealClock()
	retries             = 0
	lastSuccessfulCheck = clock.Now()
)

// Init pings the warehouse every 5 seconds until stop is closed.
func Init(svc pinger) (stop func()) {
	return start(svc, clockwork.NewRealClock())
}

func start(svc pinger, c clockwork.Clock) func() {
	mtx.Lock()
	clock = c
	lastSuccessfulCheck = c.Now()
	retries = 0
	mtx.Unlock()

	ticker := c.NewTicker(time.Second * 5)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.Chan():
				check(svc)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func check(svc pinger) {
	err := svc.Ping()
	mtx.Lock()
	defer mtx.Unlock()
	if err == nil {
		retries = 0
		lastSuccessfulCheck = clock.Now()
		logger.Debug("---- WATCHDOG CHECK OK ----")
		return
	}
	retries++
	logger.Error("warehouse not responding ", retries*5, " seconds: ", err)
}

// Check fails when the warehouse did not answer for 30 seconds.
func Check() error {
	mtx.Lock()
	defer mtx.Unlock()
	if lastSuccessfulCheck.Add(time.Second * 30).After(clock.Now()) {
		return nil
	}
	return fmt.Errorf("warehouse not responding since %v", lastSuccessfulCheck)
}
