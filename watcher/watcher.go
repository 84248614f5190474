// Package watcher keeps a cache of the last good device status.
// Can fire events if a watched status key changes between polls.
package watcher

import (
	"context"
	"sync"
	"time"

	"mheatpump2mqtt/heatpump"
)

// Config contains the configuration parameters for a new Watcher instance
type Config struct {
	Transport heatpump.Transport
}

// Watcher polls one device and tracks its last known status. The status is
// replaced wholesale on each successful poll and kept stale on failure, with
// the availability flag reflecting the outcome of the last poll.
type Watcher struct {
	Config
	OnAvailabilityChange func(available bool)

	lock      sync.RWMutex
	status    *heatpump.Status
	lastFetch time.Time
	available bool
	callbacks map[string]func(key string)
}

// New returns a new Watcher instance
func New(config *Config) *Watcher {
	return &Watcher{
		Config:    *config,
		callbacks: make(map[string]func(key string)),
	}
}

// RegisterCallback registers a callback fired when the given status key
// changes value between polls.
func (w *Watcher) RegisterCallback(key string, callback func(key string)) {
	w.callbacks[key] = callback
}

// Poll refreshes the cache by fetching status.json from the device. On failure
// the previous status is kept and the watcher is marked unavailable.
func (w *Watcher) Poll(ctx context.Context) error {
	newStatus, err := w.Transport.Status(ctx)
	if err != nil {
		w.setAvailable(false)
		return err
	}

	w.lock.Lock()
	oldStatus := w.status
	w.status = newStatus
	w.lastFetch = time.Now()

	var changedKeys []string
	for _, key := range heatpump.WatchedKeys {
		callback := w.callbacks[key]
		if callback == nil {
			continue
		}
		if oldStatus == nil || oldStatus.Value(key) != newStatus.Value(key) {
			changedKeys = append(changedKeys, key)
		}
	}
	w.lock.Unlock()

	for _, key := range changedKeys {
		w.callbacks[key](key)
	}
	w.setAvailable(true)
	return nil
}

// Status returns the last successfully fetched status, or nil if the device
// has never answered. The returned value is a snapshot and is never mutated.
func (w *Watcher) Status() *heatpump.Status {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.status
}

// LastFetch returns the time of the last successful poll.
func (w *Watcher) LastFetch() time.Time {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.lastFetch
}

// Available reports whether the last interaction with the device worked.
func (w *Watcher) Available() bool {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.available
}

// MarkUnavailable records a failed interaction with the device that happened
// outside of polling, such as a failed command flush.
func (w *Watcher) MarkUnavailable() {
	w.setAvailable(false)
}

func (w *Watcher) setAvailable(available bool) {
	w.lock.Lock()
	changed := w.available != available
	w.available = available
	w.lock.Unlock()
	if changed && w.OnAvailabilityChange != nil {
		w.OnAvailabilityChange(available)
	}
}

// TriggerCallbacks calls all callbacks
func (w *Watcher) TriggerCallbacks() {
	for key, callback := range w.callbacks {
		callback(key)
	}
}
