package model

import (
	"time"
)

type ServiceData struct {
	Session      IDBRegistry
	lastPingTime time.Time
}

func (s *ServiceData) Ping() error {
	err := s.Session.Ping()
	if err == nil {
		s.lastPingTime = time.Now()
	}
	return err
}

func (s *ServiceData) LastPing() time.Time {
	return s.lastPingTime
}
