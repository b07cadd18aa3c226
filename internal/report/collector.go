package report

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/srg/senspoll/internal/central"
)

const (
	// MaxHistorySize guards against accidental misconfiguration
	MaxHistorySize uint32 = 1024 * 1024

	// DefaultStreamSize is the capacity of the live sample stream
	DefaultStreamSize = 64
)

// Stats counts collector activity
type Stats struct {
	Reported           int64
	HistoryOverwritten int64
	StreamOverwritten  int64
	Errors             int64
}

// Collector is the reporting sink of the poll cycle. It keeps the latest
// sample per role and kind, a bounded history and a live stream.
//
// Report is called from the dispatch goroutine; every other method is safe
// to call concurrently.
type Collector struct {
	latest  *hashmap.Map[string, central.Sample]
	history mpmc.RichOverlappedRingBuffer[central.Sample]
	stream  *RingChannel[central.Sample]

	reported           atomic.Int64
	historyOverwritten atomic.Int64
	errors             atomic.Int64
}

// NewCollector creates a collector keeping historySize samples.
func NewCollector(historySize uint32, streamSize int) (*Collector, error) {
	if historySize == 0 {
		return nil, fmt.Errorf("history size must be > 0")
	}
	if historySize > MaxHistorySize {
		return nil, fmt.Errorf("history size %d exceeds maximum %d", historySize, MaxHistorySize)
	}
	if streamSize <= 0 {
		streamSize = DefaultStreamSize
	}
	return &Collector{
		latest:  hashmap.New[string, central.Sample](),
		history: mpmc.NewOverlappedRingBuffer[central.Sample](historySize),
		stream:  NewRingChannel[central.Sample](streamSize),
	}, nil
}

func key(role central.Role, kind central.Kind) string {
	return string(role) + "/" + kind.String()
}

// Report records one sample.
func (c *Collector) Report(s central.Sample) {
	c.reported.Add(1)
	c.latest.Set(key(s.Role, s.Kind), s)

	overwrites, err := c.history.EnqueueM(s)
	if err != nil {
		c.errors.Add(1)
	} else {
		c.historyOverwritten.Add(int64(overwrites))
	}
	c.stream.Send(s)
}

// Latest returns the most recent sample of a role and kind.
func (c *Collector) Latest(role central.Role, kind central.Kind) (central.Sample, bool) {
	return c.latest.Get(key(role, kind))
}

// Snapshot returns the latest sample of every role and kind, ordered by role then kind.
func (c *Collector) Snapshot() []central.Sample {
	out := make([]central.Sample, 0, c.latest.Len())
	c.latest.Range(func(_ string, s central.Sample) bool {
		out = append(out, s)
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Drain removes and returns the buffered history, oldest first.
func (c *Collector) Drain() []central.Sample {
	var out []central.Sample
	for !c.history.IsEmpty() {
		s, err := c.history.Dequeue()
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return out
}

// Stream delivers samples as they are reported. Slow readers lose the oldest ones.
func (c *Collector) Stream() <-chan central.Sample {
	return c.stream.C()
}

// Close ends the stream. Report must not be called afterwards.
func (c *Collector) Close() {
	c.stream.Close()
}

func (c *Collector) Stats() Stats {
	return Stats{
		Reported:           c.reported.Load(),
		HistoryOverwritten: c.historyOverwritten.Load(),
		StreamOverwritten:  c.stream.Overwritten(),
		Errors:             c.errors.Load(),
	}
}
