// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/stationlink/internal/metrics"
	"github.com/tomtom215/stationlink/internal/models"
)

func TestSentinelValidator(t *testing.T) {
	t.Parallel()

	def := DefaultValidator()
	lenient := SentinelValidator{Floor: -99, AllowNonFinite: true}

	tests := []struct {
		name    string
		v       Validator
		value   float64
		isValid bool
	}{
		{"sentinel", def, models.UnavailableValue, false},
		{"below floor", def, -150, false},
		{"just above floor", def, -98.9, true},
		{"zero", def, 0, true},
		{"temperature", def, 25.5, true},
		{"nan", def, math.NaN(), false},
		{"+inf", def, math.Inf(1), false},
		{"nan allowed", lenient, math.NaN(), true},
		{"+inf allowed", lenient, math.Inf(1), true},
		{"-inf never", lenient, math.Inf(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.v.IsValid(tt.value); got != tt.isValid {
				t.Errorf("IsValid(%v) = %v, want %v", tt.value, got, tt.isValid)
			}
		})
	}
}

func TestIsValidSentinelIsStable(t *testing.T) {
	t.Parallel()

	c := New()
	first := c.IsValid(models.UnavailableValue)
	for i := 0; i < 100; i++ {
		if c.IsValid(models.UnavailableValue) != first {
			t.Fatal("IsValid(sentinel) changed between calls")
		}
	}
	if first {
		t.Error("IsValid(sentinel) = true, want false")
	}
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	c := New()
	if _, ok := c.Get("60000105", "4402"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if !c.Put("60000105", "4402", 25.5) {
		t.Fatal("Put rejected a valid value")
	}
	v, ok := c.Get("60000105", "4402")
	if !ok || v != 25.5 {
		t.Errorf("Get = (%v, %v), want (25.5, true)", v, ok)
	}
}

func TestPutRejectsInvalidAndKeepsPrevious(t *testing.T) {
	t.Parallel()

	rejected := testutil.ToFloat64(metrics.CacheRejected.WithLabelValues(metricsName))
	c := New()
	c.Put("60000105", "4402", 25.5)

	if c.Put("60000105", "4402", models.UnavailableValue) {
		t.Error("Put accepted the sentinel")
	}
	if c.Put("60000105", "4402", math.NaN()) {
		t.Error("Put accepted NaN")
	}
	if v, _ := c.Get("60000105", "4402"); v != 25.5 {
		t.Errorf("previous value overwritten: got %v", v)
	}
	if got := testutil.ToFloat64(metrics.CacheRejected.WithLabelValues(metricsName)); got < rejected+2 {
		t.Errorf("CacheRejected = %v, want at least %v", got, rejected+2)
	}
}

func TestRemoveStationAndClear(t *testing.T) {
	t.Parallel()

	c := New()
	c.Put("11111111", "a", 1)
	c.Put("11111111", "b", 2)
	c.Put("22222222", "a", 3)

	c.Remove("11111111", "a")
	if _, ok := c.Get("11111111", "a"); ok {
		t.Error("Remove left the entry")
	}

	c.RemoveStation("11111111")
	if c.Len() != 1 {
		t.Errorf("Len after RemoveStation = %d, want 1", c.Len())
	}
	if _, ok := c.Get("22222222", "a"); !ok {
		t.Error("RemoveStation removed another station's entry")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	c := New()
	c.Put("11111111", "a", 1)
	c.Put("22222222", "b", 2)

	snap := c.Snapshot()
	if snap["11111111"]["a"] != 1 || snap["22222222"]["b"] != 2 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	snap["11111111"]["a"] = 100
	if v, _ := c.Get("11111111", "a"); v != 1 {
		t.Error("mutating the snapshot changed the cache")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New()
	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			station := fmt.Sprintf("%08d", s)
			for i := 0; i < 200; i++ {
				c.Put(station, "4402", float64(i))
				c.Get(station, "4402")
				_ = c.Snapshot()
			}
		}(s)
	}
	wg.Wait()

	if c.Len() != 8 {
		t.Errorf("Len = %d, want 8", c.Len())
	}
	for s := 0; s < 8; s++ {
		if v, _ := c.Get(fmt.Sprintf("%08d", s), "4402"); v != 199 {
			t.Errorf("station %d last value = %v, want 199", s, v)
		}
	}
}

func TestWithValidator(t *testing.T) {
	t.Parallel()

	c := New(WithValidator(ValidatorFunc(func(v float64) bool { return v >= 0 })))
	if c.Put("11111111", "a", -1) {
		t.Error("custom validator not applied")
	}
	if !c.Put("11111111", "a", 0) {
		t.Error("custom validator rejected 0")
	}
}

type fakeMirror struct {
	mu      sync.Mutex
	data    map[Key]float64
	failPut bool
	cleared bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{data: make(map[Key]float64)}
}

func (f *fakeMirror) Put(_ context.Context, key Key, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("mirror down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeMirror) Remove(_ context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeMirror) RemoveStation(_ context.Context, station string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.data {
		if k.Station == station {
			delete(f.data, k)
		}
	}
	return nil
}

func (f *fakeMirror) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[Key]float64)
	f.cleared = true
	return nil
}

func (f *fakeMirror) Load(context.Context) (map[Key]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[Key]float64, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out, nil
}

func TestMirrorWriteThrough(t *testing.T) {
	t.Parallel()

	m := newFakeMirror()
	c := New(WithMirror(m))
	c.Put("11111111", "a", 1)
	c.Put("11111111", "b", models.UnavailableValue)
	c.Put("22222222", "a", 2)

	if len(m.data) != 2 {
		t.Errorf("mirror has %d entries, want 2 (invalid value must not be mirrored)", len(m.data))
	}

	c.RemoveStation("11111111")
	if _, ok := m.data[Key{"11111111", "a"}]; ok {
		t.Error("RemoveStation not mirrored")
	}

	c.Clear()
	if !m.cleared {
		t.Error("Clear not mirrored")
	}
}

func TestMirrorFailureDoesNotFailPut(t *testing.T) {
	t.Parallel()

	m := newFakeMirror()
	m.failPut = true
	c := New(WithMirror(m))
	failures := testutil.ToFloat64(metrics.CacheMirrorErrors.WithLabelValues("put"))

	if !c.Put("11111111", "a", 4.2) {
		t.Fatal("Put failed because of the mirror")
	}
	if v, ok := c.Get("11111111", "a"); !ok || v != 4.2 {
		t.Errorf("Get = (%v, %v), want (4.2, true)", v, ok)
	}
	if got := testutil.ToFloat64(metrics.CacheMirrorErrors.WithLabelValues("put")); got < failures+1 {
		t.Errorf("mirror put failures = %v, want at least %v", got, failures+1)
	}
}

func TestWarm(t *testing.T) {
	t.Parallel()

	m := newFakeMirror()
	m.data[Key{"11111111", "a"}] = 1
	m.data[Key{"11111111", "b"}] = models.UnavailableValue
	m.data[Key{"22222222", "a"}] = 2

	c := New(WithMirror(m))
	c.values[Key{"22222222", "a"}] = 20

	n, err := c.Warm(context.Background())
	if err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if n != 1 {
		t.Errorf("loaded = %d, want 1", n)
	}
	if v, _ := c.Get("22222222", "a"); v != 20 {
		t.Errorf("in-memory value overwritten by mirror: %v", v)
	}
	if _, ok := c.Get("11111111", "b"); ok {
		t.Error("invalid mirrored value loaded")
	}
}

func TestWarmWithoutMirror(t *testing.T) {
	t.Parallel()

	n, err := New().Warm(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Warm without mirror = (%d, %v), want (0, nil)", n, err)
	}
}
