/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tooloptions

import (
	"log/slog"
	"sync"

	"mapforge/internal/panel"
	"mapforge/internal/toolstate"
)

const (
	nsPanel      = "tooloptions"
	keyGeometry  = "geometry"
	keyShortcuts = "shortcutsCollapsed"

	// A rebuild whose realized sections still miss a requested one is
	// re-rendered at most this many times per layout revision.
	maxRebuildRetries = 2
)

// Window reconciles the floating options panel against the bound tool's
// document. It is exclusively owned by its Controller; all mutation happens
// under the Controller's lock except gesture entry points, which re-enter
// through the Controller.
type Window struct {
	c *Controller
	r panel.Renderer

	log *slog.Logger

	toolID    string
	label     string
	doc       *toolstate.Document
	shape     toolstate.Shape
	layoutRev string

	built   bool
	shown   bool
	closed  bool
	retries int

	// markerOwner maps a control marker back to its group id so a settling
	// handler result can re-sync just that group.
	markerOwner map[string]string

	genMu sync.Mutex
	gens  map[string]uint64

	collapsed map[string]bool
}

func newWindow(c *Controller, r panel.Renderer) *Window {
	w := &Window{
		c:           c,
		r:           r,
		log:         c.log.With(slog.String("part", "window")),
		markerOwner: map[string]string{},
		gens:        map[string]uint64{},
		collapsed:   map[string]bool{},
	}
	if c.settings != nil {
		var g panel.Geometry
		if ok, err := c.settings.GetJSON(nsPanel, keyGeometry, &g); ok && err == nil && g.Width > 0 {
			r.SetGeometry(g)
		}
		if _, err := c.settings.GetJSON(nsPanel, keyShortcuts, &w.collapsed); err != nil {
			w.log.Warn("collapsed map unreadable", slog.Any("err", err))
		}
	}
	r.OnClosed(func() {
		w.c.mu.Lock()
		if w.closed {
			w.c.mu.Unlock()
			return
		}
		w.closed = true
		w.c.mu.Unlock()
		w.persist()
		w.c.windowClosed(w)
	})
	return w
}

// bindTool switches the panel to a tool. Caller holds c.mu.
func (w *Window) bindTool(id, label string, doc *toolstate.Document, force bool) {
	toolChanged := id != w.toolID
	w.toolID = id
	w.label = label
	w.applyTitle()
	w.setOptions(doc, force, toolChanged)
}

// setActiveToolOptions applies a fresh document push for the already-bound
// tool. Caller holds c.mu.
func (w *Window) setActiveToolOptions(doc *toolstate.Document, force bool) {
	w.setOptions(doc, force, false)
}

// setOptions is the patch-or-rebuild decision. A rebuild is forced when the
// caller demands one, the panel was never built, the bound tool changed, the
// layout revision moved, or the document's shape grew (a group that had no
// realized controls became available). Everything else patches in place.
func (w *Window) setOptions(doc *toolstate.Document, force, toolChanged bool) {
	if w.closed {
		return
	}
	next := toolstate.ShapeOf(doc)
	rev := ""
	if doc != nil {
		rev = doc.LayoutRev
	}
	revChanged := rev != w.layoutRev
	rebuild := force || !w.built || toolChanged || revChanged || w.shape.Grew(next)

	w.doc = doc
	w.shape = next
	w.layoutRev = rev

	if !rebuild {
		w.syncAll()
		return
	}
	if revChanged || toolChanged {
		w.retries = 0
	}
	w.rebuild(toolChanged)
}

// rebuild re-renders from scratch, preserving scroll position (unless the
// tool changed) and the content region's size so the panel does not jump.
// After the render it verifies that requested structural sections actually
// exist; a miss re-renders at most maxRebuildRetries times per revision.
func (w *Window) rebuild(toolChanged bool) {
	scroll := w.r.ScrollOffset()
	cw, ch := w.r.ContentSize()

	w.r.Rebuild(layoutFor(w.doc, w.titleText(), w.collapsed[w.toolID]))
	w.built = true

	if cw > 0 || ch > 0 {
		w.r.SetContentSize(cw, ch)
	}
	if toolChanged {
		w.r.SetScrollOffset(0)
	} else {
		w.r.SetScrollOffset(scroll)
	}

	w.markerOwner = map[string]string{}
	for _, b := range groupBinders {
		w.safeBind(b)
	}
	w.syncAll()

	if w.namingSectionMissing() {
		if w.retries < maxRebuildRetries {
			w.retries++
			w.log.Warn("naming section missing after rebuild, re-rendering",
				slog.Int("attempt", w.retries))
			w.rebuild(false)
			return
		}
		w.log.Warn("naming section still missing, giving up",
			slog.String("tool", w.toolID))
	}
}

func (w *Window) namingSectionMissing() bool {
	if w.doc == nil || w.doc.PlaceAsName == nil || !w.doc.PlaceAsName.Available {
		return false
	}
	return !w.r.HasSection(toolstate.GroupPlaceAsName)
}

// syncAll patches every group from the current document. Each group is
// isolated so one failing sync cannot abort the rest.
func (w *Window) syncAll() {
	for _, b := range groupBinders {
		w.safeSync(b)
	}
}

// syncGroup patches a single group by id. Caller holds c.mu.
func (w *Window) syncGroup(id string) {
	if w.closed {
		return
	}
	if b, ok := bindersByGroup[id]; ok {
		w.safeSync(b)
	}
}

func (w *Window) safeBind(b binder) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Warn("group bind failed", slog.String("group", b.group()), slog.Any("panic", r))
		}
	}()
	b.bind(w)
}

func (w *Window) safeSync(b binder) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Warn("group sync failed", slog.String("group", b.group()), slog.Any("panic", r))
		}
	}()
	b.sync(w, w.doc)
}

func (w *Window) titleText() string {
	if w.label != "" {
		return w.label + " Options"
	}
	return "Tool Options"
}

func (w *Window) applyTitle() {
	w.r.SetTitle(w.titleText())
}

// setLabel re-labels the bound tool. Caller holds c.mu.
func (w *Window) setLabel(label string) {
	w.label = label
	w.applyTitle()
}

func (w *Window) show() {
	w.shown = true
	w.r.Show()
}

// close is the controller-driven teardown (last tool deactivated). Caller
// must not hold c.mu.
func (w *Window) close() {
	w.c.mu.Lock()
	if w.closed {
		w.c.mu.Unlock()
		return
	}
	w.closed = true
	w.retries = 0
	w.c.mu.Unlock()
	w.persist()
	w.r.Close()
}

// persist saves window geometry and the per-tool collapsed map.
func (w *Window) persist() {
	st := w.c.settings
	if st == nil {
		return
	}
	if err := st.SetJSON(nsPanel, keyGeometry, w.r.Geometry()); err != nil {
		w.log.Warn("geometry persist failed", slog.Any("err", err))
	}
	if err := st.SetJSON(nsPanel, keyShortcuts, w.collapsed); err != nil {
		w.log.Warn("collapsed map persist failed", slog.Any("err", err))
	}
}

// setShortcutsCollapsed folds the shortcuts section for the bound tool and
// persists the per-tool map. Caller must not hold c.mu.
func (w *Window) setShortcutsCollapsed(collapsed bool) {
	w.c.mu.Lock()
	if w.closed {
		w.c.mu.Unlock()
		return
	}
	if w.toolID != "" {
		w.collapsed[w.toolID] = collapsed
	}
	w.r.SetSectionCollapsed(toolstate.GroupCustomToggles, collapsed)
	st := w.c.settings
	m := make(map[string]bool, len(w.collapsed))
	for k, v := range w.collapsed {
		m[k] = v
	}
	w.c.mu.Unlock()
	if st != nil {
		if err := st.SetJSON(nsPanel, keyShortcuts, m); err != nil {
			w.log.Warn("collapsed map persist failed", slog.Any("err", err))
		}
	}
}

// registerMarker records which group owns a marker. Called during bind.
func (w *Window) registerMarker(marker, group string) {
	w.markerOwner[marker] = group
}

func (w *Window) nextGen(marker string) uint64 {
	w.genMu.Lock()
	defer w.genMu.Unlock()
	w.gens[marker]++
	return w.gens[marker]
}

func (w *Window) curGen(marker string) uint64 {
	w.genMu.Lock()
	defer w.genMu.Unlock()
	return w.gens[marker]
}

// settle re-syncs a marker's group once a handler result is known. Whether
// the handler accepted or rejected, the group is re-read from the document,
// which naturally reverts a rejected optimistic change. The generation
// counter drops stale resolutions: only the most recent invocation per
// marker gets to sync.
func (w *Window) settle(marker string, gen uint64, res any) {
	apply := func() {
		w.c.mu.Lock()
		defer w.c.mu.Unlock()
		if w.closed || w.curGen(marker) != gen {
			return
		}
		if g, ok := w.markerOwner[marker]; ok {
			w.syncGroup(g)
		} else {
			w.syncAll()
		}
	}
	switch v := res.(type) {
	case <-chan bool:
		go func() {
			<-v
			apply()
		}()
	case chan bool:
		go func() {
			<-v
			apply()
		}()
	default:
		apply()
	}
}
