/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tooloptions is the tool-options state-synchronization engine: a
// Controller owning the set of active tools with their options documents and
// handler tables, and a Window reconciling a single floating panel against
// whichever tool is currently bound. User input flows back through the
// Controller's handler invocation; handler rejection rolls the control back
// to the last known-good document value.
package tooloptions

import (
	"log/slog"
	"strconv"
	"sync"

	applog "mapforge/internal/log"
	"mapforge/internal/panel"
	"mapforge/internal/settings"
	"mapforge/internal/telemetry"
	"mapforge/internal/toolstate"
)

// Handler is one named per-tool callback. A nil, true, or unrecognized result
// accepts the requested change; false, a non-nil error, or a channel that
// yields false rejects it. Channels model handlers that decide asynchronously.
type Handler func(args ...any) any

// HandlerTable maps handler names to callbacks for one tool.
type HandlerTable map[string]Handler

// Options is the full per-tool payload pushed by external tool code. The
// document is replaced wholesale on every push; there is no partial merge.
// ForceRender requests a full panel rebuild instead of an in-place patch
// (the panel may still rebuild on its own when the document grows shape).
type Options struct {
	State       *toolstate.Document
	Handlers    HandlerTable
	Toggles     map[string]Handler // per custom-toggle id
	ForceRender bool
}

// ToolEntry is one currently-active tool.
type ToolEntry struct {
	ID    string
	Label string
}

// WindowState is the observer snapshot handed to state listeners.
type WindowState struct {
	HasActiveTool bool
	IsWindowOpen  bool
	ActiveToolID  string
}

// Notifier surfaces short user-visible warnings (persistence failures).
type Notifier interface {
	Warn(msg string)
}

// SettingsStore is the slice of the settings store the engine needs.
// *settings.Store satisfies it.
type SettingsStore interface {
	Get(namespace, key string) (string, bool, error)
	Set(namespace, key, value string) error
	GetJSON(namespace, key string, out any) (bool, error)
	SetJSON(namespace, key string, v any) error
	OnChange(fn settings.Changed)
}

const (
	nsGrid         = "grid"
	keySnap        = "snap"
	keySubdivision = "subdivision"

	defaultSubdivision = 1
	maxSubdivision     = 64

	// HandlerSetDropShadowEnabled is the conventional handler name backing
	// RequestDropShadowToggle.
	HandlerSetDropShadowEnabled = "setDropShadowEnabled"
)

// Config wires a Controller. Every field except NewRenderer is optional.
type Config struct {
	Settings    SettingsStore
	NewRenderer func() panel.Renderer
	Notifier    Notifier
	Log         *slog.Logger
	// CanAccessSettings gates grid-snap persistence during early startup.
	// Nil means "persist whenever a settings store is present".
	CanAccessSettings func() bool
}

// Controller owns the active-tool set and the panel lifecycle. One instance
// exists per running session, injected into whatever composes the UI.
type Controller struct {
	mu sync.Mutex

	log       *slog.Logger
	settings  SettingsStore
	newRend   func() panel.Renderer
	notifier  Notifier
	canAccess func() bool

	order    []string
	entries  map[string]*ToolEntry
	states   map[string]*toolstate.Document
	handlers map[string]HandlerTable
	toggles  map[string]map[string]Handler

	win *Window

	gridSnap    bool
	gridSubdiv  int
	needsResync bool

	listeners    map[int]func(WindowState)
	nextListener int
}

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Warn(msg string) { n.log.Warn(msg) }

// NewController builds the session controller. When a settings store is
// given, the cached grid-snap values are read once and then kept in sync via
// the store's change notifications.
func NewController(cfg Config) *Controller {
	l := cfg.Log
	if l == nil {
		l = applog.WithComponent("tooloptions")
	}
	c := &Controller{
		log:        l,
		settings:   cfg.Settings,
		newRend:    cfg.NewRenderer,
		notifier:   cfg.Notifier,
		canAccess:  cfg.CanAccessSettings,
		entries:    map[string]*ToolEntry{},
		states:     map[string]*toolstate.Document{},
		handlers:   map[string]HandlerTable{},
		toggles:    map[string]map[string]Handler{},
		listeners:  map[int]func(WindowState){},
		gridSubdiv: defaultSubdivision,
	}
	if c.notifier == nil {
		c.notifier = logNotifier{log: l}
	}
	if c.settings != nil {
		if c.settingsReady() {
			c.loadGridLocked()
		} else {
			c.needsResync = true
		}
		c.settings.OnChange(func(namespace, key, value string) {
			if namespace != nsGrid {
				return
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			switch key {
			case keySnap:
				c.gridSnap = value == "true" || value == "1"
			case keySubdivision:
				if n, err := strconv.Atoi(value); err == nil {
					c.gridSubdiv = clampSubdivision(n)
				}
			}
			c.syncGridLocked()
		})
	}
	return c
}

func (c *Controller) settingsReady() bool {
	return c.settings != nil && (c.canAccess == nil || c.canAccess())
}

// loadGridLocked re-reads the cached grid values. Caller holds c.mu (or is
// still inside NewController).
func (c *Controller) loadGridLocked() {
	if v, ok, err := c.settings.Get(nsGrid, keySnap); err == nil && ok {
		c.gridSnap = v == "true" || v == "1"
	}
	if v, ok, err := c.settings.Get(nsGrid, keySubdivision); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.gridSubdiv = clampSubdivision(n)
		}
	}
	c.needsResync = false
}

func clampSubdivision(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxSubdivision {
		return maxSubdivision
	}
	return n
}

// ActivateTool registers (or re-labels) a tool, lazily constructs the panel,
// binds it to this tool without forcing a rebuild, and shows it.
func (c *Controller) ActivateTool(id, label string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		if label != "" {
			e.Label = label
		}
	} else {
		c.entries[id] = &ToolEntry{ID: id, Label: label}
		c.order = append(c.order, id)
	}
	if c.win == nil {
		if c.newRend == nil {
			c.mu.Unlock()
			c.log.Warn("activate tool without a renderer factory", slog.String("tool", id))
			return
		}
		c.win = newWindow(c, c.newRend())
	}
	c.win.bindTool(id, c.entries[id].Label, c.states[id], false)
	c.win.show()
	c.mu.Unlock()
	c.notifyListeners()
	telemetry.Event("tool_activated", map[string]any{"tool": id})
}

// UpdateTool changes the label of an already-active tool. Inactive ids are a
// no-op; state and handlers are never touched.
func (c *Controller) UpdateTool(id, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return
	}
	e.Label = label
	if c.win != nil && c.win.toolID == id {
		c.win.setLabel(label)
	}
}

// DeactivateTool removes a tool from the active set. Removing the last tool
// closes and discards the panel; removing the bound-but-not-last tool rebinds
// the panel to the most recently activated remaining tool.
func (c *Controller) DeactivateTool(id string) {
	c.mu.Lock()
	if _, ok := c.entries[id]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.entries, id)
	delete(c.states, id)
	delete(c.handlers, id)
	delete(c.toggles, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	var closing *Window
	if len(c.order) == 0 {
		closing = c.win
		c.win = nil
	} else if c.win != nil && c.win.toolID == id {
		last := c.order[len(c.order)-1]
		c.win.bindTool(last, c.entries[last].Label, c.states[last], false)
	}
	c.mu.Unlock()
	if closing != nil {
		closing.close()
	}
	c.notifyListeners()
}

// SetToolOptions stores a tool's document and handler tables. When the tool
// is currently bound, the panel is patched (or rebuilt, per its own shape
// diff) to match. Pushes for unbound tools never touch the visible panel.
func (c *Controller) SetToolOptions(id string, opts Options) {
	if id == "" {
		return
	}
	if opts.State != nil {
		opts.State.Normalize()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[id] = opts.State
	c.handlers[id] = opts.Handlers
	c.toggles[id] = opts.Toggles
	if c.win != nil && c.win.toolID == id {
		c.win.setActiveToolOptions(opts.State, opts.ForceRender)
	}
}

// GetToolState returns the stored document for a tool, or nil.
func (c *Controller) GetToolState(id string) *toolstate.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[id]
}

// lookupHandler resolves the bound tool's named handler, or nil.
func (c *Controller) lookupHandler(name string) Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return nil
	}
	tbl := c.handlers[c.win.toolID]
	if tbl == nil {
		return nil
	}
	return tbl[name]
}

// InvokeToolHandler calls the bound tool's named handler with args and
// returns its raw result. A missing tool or handler yields false; that is a
// normal condition, not an error.
func (c *Controller) InvokeToolHandler(name string, args ...any) any {
	h := c.lookupHandler(name)
	if h == nil {
		return false
	}
	return h(args...)
}

// RequestCustomToggle routes a custom-toggle change to the bound tool's
// per-id toggle handler.
func (c *Controller) RequestCustomToggle(toggleID string, enabled bool) any {
	c.mu.Lock()
	var h Handler
	if c.win != nil {
		if tbl := c.toggles[c.win.toolID]; tbl != nil {
			h = tbl[toggleID]
		}
	}
	c.mu.Unlock()
	if h == nil {
		return false
	}
	return h(enabled)
}

// RequestDropShadowToggle routes the drop-shadow enable change to the bound
// tool's conventional handler.
func (c *Controller) RequestDropShadowToggle(enabled bool) any {
	return c.InvokeToolHandler(HandlerSetDropShadowEnabled, enabled)
}

// RequestGridSnapToggle optimistically applies a new grid-snap value, then
// persists it. A failed write rolls the value back, shows a warning, and
// returns false. When the settings store is not yet accessible the value is
// kept locally and re-read on the next confirmed access.
func (c *Controller) RequestGridSnapToggle(enabled bool) bool {
	c.mu.Lock()
	prev := c.gridSnap
	c.gridSnap = enabled
	c.syncGridLocked()
	if !c.settingsReady() {
		c.needsResync = true
		c.mu.Unlock()
		return true
	}
	st := c.settings
	c.mu.Unlock()

	if err := st.Set(nsGrid, keySnap, strconv.FormatBool(enabled)); err != nil {
		c.log.Warn("grid snap persist failed", slog.Any("err", err))
		c.mu.Lock()
		c.gridSnap = prev
		c.syncGridLocked()
		c.mu.Unlock()
		c.notifier.Warn("Could not save grid snap setting")
		return false
	}
	telemetry.Event("grid_snap", map[string]any{"enabled": enabled})
	return true
}

// RequestGridSnapSubdivisionChange persists a new subdivision count with the
// same optimistic-apply/rollback contract as RequestGridSnapToggle.
func (c *Controller) RequestGridSnapSubdivisionChange(value int) bool {
	if value < 1 {
		return false
	}
	value = clampSubdivision(value)
	c.mu.Lock()
	prev := c.gridSubdiv
	c.gridSubdiv = value
	c.syncGridLocked()
	if !c.settingsReady() {
		c.needsResync = true
		c.mu.Unlock()
		return true
	}
	st := c.settings
	c.mu.Unlock()

	if err := st.Set(nsGrid, keySubdivision, strconv.Itoa(value)); err != nil {
		c.log.Warn("grid subdivision persist failed", slog.Any("err", err))
		c.mu.Lock()
		c.gridSubdiv = prev
		c.syncGridLocked()
		c.mu.Unlock()
		c.notifier.Warn("Could not save grid subdivision setting")
		return false
	}
	telemetry.Event("grid_subdivision", map[string]any{"value": value})
	return true
}

// GridSnap returns the cached grid-snap value, lazily re-reading the store if
// an earlier change happened before the store was accessible.
func (c *Controller) GridSnap() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.needsResync && c.settingsReady() {
		c.loadGridLocked()
	}
	return c.gridSnap
}

// GridSnapSubdivision returns the cached subdivision count.
func (c *Controller) GridSnapSubdivision() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.needsResync && c.settingsReady() {
		c.loadGridLocked()
	}
	return c.gridSubdiv
}

// syncGridLocked pushes the cached grid values into the panel. Caller holds c.mu.
func (c *Controller) syncGridLocked() {
	if c.win != nil {
		c.win.syncGroup(groupGrid)
	}
}

// UpdateDropShadowPreview swaps the preview thumbnail inside a tool's stored
// document. A nil preview clears it. The panel patches in place when bound.
func (c *Controller) UpdateDropShadowPreview(toolID string, preview *toolstate.PreviewImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.states[toolID]
	if d == nil || d.DropShadow == nil {
		return
	}
	d.DropShadow.Preview = preview
	if c.win != nil && c.win.toolID == toolID {
		c.win.syncGroup(toolstate.GroupDropShadow)
	}
}

// SetShortcutsCollapsed folds or unfolds the bound tool's shortcuts section
// and persists the per-tool collapsed map.
func (c *Controller) SetShortcutsCollapsed(collapsed bool) {
	c.mu.Lock()
	w := c.win
	c.mu.Unlock()
	if w == nil {
		return
	}
	w.setShortcutsCollapsed(collapsed)
}

// AddStateListener registers an observer of the active-tool/window snapshot
// and returns its unsubscribe function. A panicking listener is isolated so
// the rest still get notified.
func (c *Controller) AddStateListener(fn func(WindowState)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// GetWindowState returns the current observer snapshot.
func (c *Controller) GetWindowState() WindowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() WindowState {
	s := WindowState{
		HasActiveTool: len(c.order) > 0,
		IsWindowOpen:  c.win != nil && c.win.shown,
	}
	if c.win != nil {
		s.ActiveToolID = c.win.toolID
	}
	return s
}

func (c *Controller) notifyListeners() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	fns := make([]func(WindowState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Warn("state listener panicked", slog.Any("panic", r))
				}
			}()
			fn(snap)
		}()
	}
}

// windowClosed is invoked from the renderer's closed callback when the user
// dismisses the panel. Active tools stay registered; the next ActivateTool
// builds a fresh panel.
func (c *Controller) windowClosed(w *Window) {
	c.mu.Lock()
	if c.win == w {
		c.win = nil
	}
	c.mu.Unlock()
	c.notifyListeners()
}
