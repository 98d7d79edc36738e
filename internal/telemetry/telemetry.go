/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous usage events and crash reports. It is
// strictly opt-in: without both the opt-in flag and a configured endpoint
// every call is a no-op, so callers can emit unconditionally.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "mapforge/internal/log"
	"mapforge/internal/version"
)

// Config holds the runtime configuration for usage events and crash uploads.
//
// Environment variables read by FromEnv:
//   - MFG_TELEMETRY_OPT_IN: "1", "true", "yes", "on" to enable
//   - MFG_TELEMETRY_URL: URL usage events are POSTed to as JSON
//   - MFG_CRASH_UPLOAD_URL: URL crash reports are POSTed to
//   - MFG_TELEMETRY_TIMEOUT_MS: request timeout, default 1500ms
//   - MFG_TELEMETRY_DEBUG: when set, send attempts are logged
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads the telemetry configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("MFG_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("MFG_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("MFG_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("MFG_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("MFG_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// event is the wire shape of one usage event. Props must not carry PII; the
// fixed fields are version and platform only.
type event struct {
	Name    string         `json:"name"`
	Time    string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events on a bounded channel and sends them from a single
// background worker. A full queue drops events rather than blocking a user
// gesture; send failures are dropped silently.
type Client struct {
	cfg  Config
	log  *slog.Logger
	cli  *http.Client
	q    chan event
	done chan struct{}
	once sync.Once
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

func getDefault() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// InitDefault installs the package-level default client from the environment
// unless one is already installed.
func InitDefault() { getDefault() }

// NewDefault installs a default client with cfg, draining and replacing any
// earlier one.
func NewDefault(cfg Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		defaultClient.Close()
	}
	defaultClient = New(cfg)
}

// New constructs a client and starts its send worker.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		cli:  &http.Client{Timeout: cfg.Timeout},
		q:    make(chan event, 64),
		done: make(chan struct{}),
	}
	go c.worker()
	return c
}

// Enabled reports whether usage events are opted in and have an endpoint.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether the default client sends usage events.
func Enabled() bool { return getDefault().Enabled() }

// Event queues one named usage event. Safe to call from any goroutine; a
// disabled client or an empty name is a no-op.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := event{
		Name:    name,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		ev.Props = make(map[string]any, len(props))
		for k, v := range props {
			ev.Props[k] = v
		}
	}
	select {
	case c.q <- ev:
	default:
		// queue full, drop
	}
}

// Event queues a usage event on the default client.
func Event(name string, props map[string]any) { getDefault().Event(name, props) }

// Flush waits for the queue to drain, bounded by ctx and a short deadline.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(c.q) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Flush drains the default client's queue.
func Flush(ctx context.Context) { getDefault().Flush(ctx) }

// Close stops the worker after draining whatever is already queued.
func (c *Client) Close() { c.once.Do(func() { close(c.done) }) }

func (c *Client) worker() {
	for {
		select {
		case ev := <-c.q:
			c.send(ev)
		case <-c.done:
			for {
				select {
				case ev := <-c.q:
					c.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (c *Client) send(ev event) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("event send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("event sent", slog.String("name", ev.Name))
	}
}

// UploadCrash posts a serialized crash report to the crash URL. Uploads need
// the opt-in flag but not an events endpoint, and run on their own goroutine
// so shutdown is never blocked.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.cli.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash posts a crash report through the default client.
func UploadCrash(report []byte) { getDefault().UploadCrash(report) }
