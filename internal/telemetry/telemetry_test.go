/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// capture is a test endpoint recording every request body it receives.
type capture struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	c.mu.Lock()
	c.bodies = append(c.bodies, b)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func (c *capture) first() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bodies) == 0 {
		return nil
	}
	return c.bodies[0]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEventDelivery(t *testing.T) {
	sink := &capture{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatal("client with opt-in and endpoint should be enabled")
	}

	c.Event("tool_activated", map[string]any{"tool": "paths"})
	c.Flush(context.Background())
	waitFor(t, func() bool { return sink.count() > 0 })

	var ev struct {
		Name  string         `json:"name"`
		Time  string         `json:"ts"`
		Props map[string]any `json:"props"`
	}
	if err := json.Unmarshal(sink.first(), &ev); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if ev.Name != "tool_activated" || ev.Time == "" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Props["tool"] != "paths" {
		t.Fatalf("props = %v", ev.Props)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	sink := &capture{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	// Not opted in.
	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatal("client without opt-in must be disabled")
	}
	c.Event("ignored", nil)
	c.UploadCrash([]byte("ignored"))

	// Opted in, but no endpoint and no event name.
	c2 := New(Config{OptIn: true, Timeout: time.Second})
	defer c2.Close()
	c2.Event("dropped", nil)
	c3 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c3.Close()
	c3.Event("", nil)
	c3.Flush(context.Background())

	time.Sleep(50 * time.Millisecond)
	if got := sink.count(); got != 0 {
		t.Fatalf("disabled clients sent %d requests", got)
	}
}

func TestCloseDrainsQueuedEvents(t *testing.T) {
	sink := &capture{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: 2 * time.Second})
	c.Event("one", nil)
	c.Event("two", nil)
	c.Close()
	waitFor(t, func() bool { return sink.count() == 2 })
}

func TestUploadCrashPostsReport(t *testing.T) {
	sink := &capture{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	// Crash uploads work without an events endpoint.
	c := New(Config{OptIn: true, CrashURL: srv.URL, Timeout: 2 * time.Second})
	defer c.Close()
	c.UploadCrash([]byte("goroutine 1 [running]"))
	waitFor(t, func() bool { return sink.count() == 1 })
	if string(sink.first()) != "goroutine 1 [running]" {
		t.Fatalf("uploaded body = %q", sink.first())
	}
}

func TestSendFailuresAreSilent(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	defer c.Close()

	c.Event("unreachable", map[string]any{"n": 1})
	c.Flush(context.Background())
	c.UploadCrash([]byte("unreachable"))
	time.Sleep(80 * time.Millisecond)
}

func TestFromEnvAndDefaultClient(t *testing.T) {
	t.Setenv("MFG_TELEMETRY_OPT_IN", "yes")
	t.Setenv("MFG_TELEMETRY_URL", "http://127.0.0.1:0")
	t.Setenv("MFG_CRASH_UPLOAD_URL", "")
	t.Setenv("MFG_TELEMETRY_TIMEOUT_MS", "250")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL == "" || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("FromEnv parsed %+v", cfg)
	}

	NewDefault(cfg)
	if !Enabled() {
		t.Fatal("default client should report enabled")
	}
	NewDefault(Config{})
	if Enabled() {
		t.Fatal("zero config must disable the default client")
	}
}
