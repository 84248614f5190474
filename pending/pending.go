// Package pending accumulates setting changes queued by user commands and
// flushes them to the device as a single set.json command, reconciling the
// device's echo to decide which changes are confirmed.
package pending

import (
	"context"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"mheatpump2mqtt/heatpump"
)

// Queue coalesces pending setting changes for one device. Set may be called
// from any goroutine; a queued key always holds the most recently requested
// value (last writer wins). Flush must not be invoked concurrently with
// itself; the bridge serializes its update cycle per device.
type Queue struct {
	transport heatpump.Transport
	name      string

	lock   sync.Mutex
	values map[string]interface{}
}

func New(transport heatpump.Transport, name string) *Queue {
	return &Queue{
		transport: transport,
		name:      name,
		values:    make(map[string]interface{}),
	}
}

// Set stores or overwrites the pending value for key. Values must be typed the
// way JSON decoding types them (bool, string, float64) so reconciliation can
// compare them against the echoed document.
func (q *Queue) Set(key string, value interface{}) {
	q.lock.Lock()
	q.values[key] = value
	q.lock.Unlock()
}

func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.values)
}

// Keys returns the currently pending keys, sorted.
func (q *Queue) Keys() []string {
	q.lock.Lock()
	defer q.lock.Unlock()
	keys := make([]string, 0, len(q.values))
	for k := range q.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush sends every pending change in one command document. Keys with no
// pending change are sent as null so the device leaves them unchanged. A key is
// cleared only when the echoed value matches what is queued for it right now;
// updates queued while the send was in flight therefore survive. On transport
// failure the queue is left untouched and the error is returned, to be retried
// on the next flush. An unconfirmed key is not an error: it stays queued and
// is retried until the device accepts it or a newer value replaces it.
func (q *Queue) Flush(ctx context.Context) error {
	q.lock.Lock()
	if len(q.values) == 0 {
		q.lock.Unlock()
		return nil
	}
	cmd := make(heatpump.Command, len(heatpump.SettableKeys))
	for _, key := range heatpump.SettableKeys {
		cmd[key] = nil
	}
	for key, value := range q.values {
		cmd[key] = value
	}
	q.lock.Unlock()

	echo, err := q.transport.Set(ctx, cmd)
	if err != nil {
		return err
	}

	q.lock.Lock()
	for key, echoed := range echo {
		queued, ok := q.values[key]
		if ok && equalValue(echoed, queued) {
			delete(q.values, key)
		}
	}
	remaining := len(q.values)
	q.lock.Unlock()

	if remaining > 0 {
		log.WithField("device", q.name).Warnf("%d setting(s) not confirmed by device: %v, will retry next flush", remaining, q.Keys())
	}
	return nil
}

// equalValue compares a value echoed by the device against a queued one.
// Both sides carry JSON types, but numbers may arrive as any numeric Go type
// when queued programmatically.
func equalValue(a, b interface{}) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
