package diagnostics

import (
	"errors"

	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"go.uber.org/zap"
)

// DefaultSampleSize is how many malformed events a collector keeps verbatim.
const DefaultSampleSize = 20

// Summary is the serializable outcome of a collector.
type Summary struct {
	MalformedEvents int            `json:"malformed_events"`
	ByReason        map[string]int `json:"by_reason,omitempty"`
	Samples         []string       `json:"samples,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// Collector records non-fatal problems seen during one session's replay.
type Collector struct {
	logger     *zap.Logger
	sampleSize int
	malformed  int
	byReason   map[string]int
	samples    []string
	warnings   []string
}

// NewCollector creates a collector. A nil logger disables logging.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger:     logger,
		sampleSize: DefaultSampleSize,
		byReason:   make(map[string]int),
	}
}

// ReportMalformed records a dropped event.
func (c *Collector) ReportMalformed(err error) {
	c.malformed++

	reason := err.Error()
	var malformed *combatlog.MalformedEventError
	if errors.As(err, &malformed) {
		reason = malformed.Reason
		c.logger.Debug("dropped malformed event",
			zap.Int("index", malformed.Index),
			zap.Int64("timestamp", malformed.Event.Timestamp),
			zap.String("kind", string(malformed.Event.Kind)),
			zap.String("reason", malformed.Reason),
		)
	} else {
		c.logger.Debug("dropped malformed event", zap.Error(err))
	}

	c.byReason[reason]++
	if len(c.samples) < c.sampleSize {
		c.samples = append(c.samples, err.Error())
	}
}

// Warn records a non-fatal problem that is not tied to a single event,
// such as a module output that could not be computed.
func (c *Collector) Warn(msg string, fields ...zap.Field) {
	c.warnings = append(c.warnings, msg)
	c.logger.Warn(msg, fields...)
}

// MalformedCount returns the number of dropped events.
func (c *Collector) MalformedCount() int {
	return c.malformed
}

// Summary returns a snapshot of everything collected.
func (c *Collector) Summary() Summary {
	s := Summary{
		MalformedEvents: c.malformed,
		Samples:         append([]string(nil), c.samples...),
		Warnings:        append([]string(nil), c.warnings...),
	}
	if len(c.byReason) > 0 {
		s.ByReason = make(map[string]int, len(c.byReason))
		for k, v := range c.byReason {
			s.ByReason[k] = v
		}
	}
	return s
}
