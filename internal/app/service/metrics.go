package service

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	commands atomic.Int64
	qr       atomic.Int64
	errors   atomic.Int64
	started  time.Time
}

type MetricsSnapshot struct {
	CommandsProcessed int64         `json:"commands_processed"`
	QRGenerated       int64         `json:"qr_generated"`
	ErrorsLogged      int64         `json:"errors_logged"`
	StartedAt         time.Time     `json:"started_at"`
	Uptime            time.Duration `json:"uptime_ns"`
}

func NewMetrics() *Metrics { return &Metrics{started: time.Now()} }

func (m *Metrics) CommandProcessed() { m.commands.Add(1) }
func (m *Metrics) QRGenerated()      { m.qr.Add(1) }
func (m *Metrics) ErrorLogged()      { m.errors.Add(1) }

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CommandsProcessed: m.commands.Load(),
		QRGenerated:       m.qr.Load(),
		ErrorsLogged:      m.errors.Load(),
		StartedAt:         m.started,
		Uptime:            time.Since(m.started),
	}
}
