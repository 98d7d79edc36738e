/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tooloptions

import (
	"math"
	"strconv"
	"strings"

	"mapforge/internal/panel"
	"mapforge/internal/toolstate"
)

// binder is one control group's bind/sync pair. Implementations are stateless
// configuration; all per-window state lives on the Window. bind must be a
// no-op when the current layout has no controls for the group, and sync must
// tolerate a nil document.
type binder interface {
	group() string
	bind(w *Window)
	sync(w *Window, doc *toolstate.Document)
}

// decimalsForStep infers how many decimal places to keep when echoing a value
// into a form input, from the control's step. Step 0.1 keeps 1 decimal, step
// 1 keeps none. This avoids float noise like "1.0000000002" in a text box.
func decimalsForStep(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	d := len(s) - i - 1
	if d > 6 {
		d = 6
	}
	return d
}

func formatScalar(v, step float64) string {
	return strconv.FormatFloat(v, 'f', decimalsForStep(step), 64)
}

func clampf(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// scalarGetter pulls one Scalar out of a document, nil when its group is
// absent or unavailable.
type scalarGetter func(*toolstate.Document) *toolstate.Scalar

// scalarFromDoc reads a scalar from the current document under the lock.
func (w *Window) scalarFromDoc(get scalarGetter) *toolstate.Scalar {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	if w.doc == nil {
		return nil
	}
	return get(w.doc)
}

// scalarInput routes a value edit to the group's handler and schedules the
// settle re-sync. The raw text is forwarded as-is; the handler owns parsing.
func (w *Window) scalarInput(marker, handler, value string, commit bool) {
	gen := w.nextGen(marker)
	res := w.c.InvokeToolHandler(handler, value, commit)
	w.settle(marker, gen, res)
}

// scalarWheel nudges a numeric control by wheel steps. A plain wheel scrolls
// the panel instead, so only ctrl-wheel reaches here as a nudge; shift
// multiplies the step by 5, the fine modifier divides it by 10. The echoed
// value keeps the effective step's precision so fine nudges survive the
// round trip.
func (w *Window) scalarWheel(marker, handler string, get scalarGetter, delta int, shift, ctrl, fine bool) {
	if !ctrl {
		return
	}
	s := w.scalarFromDoc(get)
	if s == nil {
		return
	}
	step := s.Step
	if shift {
		step *= 5
	}
	if fine {
		step /= 10
	}
	next := clampf(s.Value+float64(delta)*step, s.Min, s.Max)
	if next == s.Value {
		return
	}
	w.scalarInput(marker, handler, formatScalar(next, step), true)
}

// scalarReset restores a numeric control to its stamped default, when the
// document carries one.
func (w *Window) scalarReset(marker, handler string, get scalarGetter) {
	s := w.scalarFromDoc(get)
	if s == nil || s.DefaultValue == nil {
		return
	}
	w.scalarInput(marker, handler, formatScalar(*s.DefaultValue, s.Step), true)
}

// bindScalar wires the full numeric gesture set onto one marker.
func (w *Window) bindScalar(group, marker, handler string, get scalarGetter) {
	if w.r.Control(marker) == nil {
		return
	}
	w.registerMarker(marker, group)
	w.r.Bind(marker, panel.Events{
		OnInput: func(v string, commit bool) { w.scalarInput(marker, handler, v, commit) },
		OnWheel: func(d int, shift, ctrl, fine bool) { w.scalarWheel(marker, handler, get, d, shift, ctrl, fine) },
		OnReset: func() { w.scalarReset(marker, handler, get) },
	})
}

// syncScalarControl patches one realized numeric control from a scalar.
// Writes are skipped when the value already matches or the control is being
// edited, so a sync pass never steals focus or moves a cursor.
func syncScalarControl(w *Window, marker string, s *toolstate.Scalar, visible, disabled bool) {
	c := w.r.Control(marker)
	if c == nil {
		return
	}
	if s == nil || !visible {
		if c.Visible() {
			c.SetVisible(false)
		}
		return
	}
	if !c.Visible() {
		c.SetVisible(true)
	}
	if c.Disabled() != disabled {
		c.SetDisabled(disabled)
	}
	rc, ok := c.(panel.RangeControl)
	if !ok {
		return
	}
	if min, max, step := rc.Range(); min != s.Min || max != s.Max || step != s.Step {
		rc.SetRange(s.Min, s.Max, s.Step)
	}
	if want := formatScalar(s.Value, s.Step); !c.Focused() && rc.Value() != want {
		rc.SetValue(want)
	}
}

// syncDisplay patches the read-only display paired with a numeric control.
func syncDisplay(w *Window, marker, display string, visible bool) {
	c, ok := w.r.Control(marker).(panel.ValueControl)
	if !ok || c == nil {
		return
	}
	show := visible && display != ""
	if c.Visible() != show {
		c.SetVisible(show)
	}
	if show && c.Value() != display {
		c.SetValue(display)
	}
}

// numericControl is a slider-with-display group.
type numericControl struct {
	id      string
	handler string
	get     func(*toolstate.Document) *toolstate.Numeric
}

func (n numericControl) group() string { return n.id }

func (n numericControl) scalar(d *toolstate.Document) *toolstate.Scalar {
	g := n.get(d)
	if g == nil || !g.Available {
		return nil
	}
	return &g.Scalar
}

func (n numericControl) bind(w *Window) {
	w.bindScalar(n.id, n.id, n.handler, n.scalar)
}

func (n numericControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.Numeric
	if doc != nil {
		g = n.get(doc)
	}
	if g == nil || !g.Available {
		syncScalarControl(w, n.id, nil, false, false)
		syncDisplay(w, n.id+"-display", "", false)
		return
	}
	syncScalarControl(w, n.id, &g.Scalar, true, g.Disabled)
	syncDisplay(w, n.id+"-display", g.Display, true)
}

// toggleControl is a single checkbox group.
type toggleControl struct {
	id      string
	handler string
	get     func(*toolstate.Document) *toolstate.Toggle
}

func (t toggleControl) group() string { return t.id }

func (t toggleControl) bind(w *Window) {
	if w.r.Control(t.id) == nil {
		return
	}
	w.registerMarker(t.id, t.id)
	w.r.Bind(t.id, panel.Events{
		OnToggle: func(on bool) {
			gen := w.nextGen(t.id)
			res := w.c.InvokeToolHandler(t.handler, on)
			w.settle(t.id, gen, res)
		},
	})
}

func (t toggleControl) sync(w *Window, doc *toolstate.Document) {
	c := w.r.Control(t.id)
	if c == nil {
		return
	}
	var g *toolstate.Toggle
	if doc != nil {
		g = t.get(doc)
	}
	if g == nil || !g.Available {
		if c.Visible() {
			c.SetVisible(false)
		}
		return
	}
	if !c.Visible() {
		c.SetVisible(true)
	}
	if c.Disabled() != g.Disabled {
		c.SetDisabled(g.Disabled)
	}
	if tc, ok := c.(panel.ToggleControl); ok && !c.Focused() && tc.Checked() != g.Enabled {
		tc.SetChecked(g.Enabled)
	}
}

// pairControl is a two-scalar group: offset X/Y, feather start/end, range
// min/max. Each axis carries the full numeric gesture contract.
type pairControl struct {
	id            string
	firstHandler  string
	secondHandler string
	get           func(*toolstate.Document) *toolstate.AxisPair
}

func (p pairControl) group() string { return p.id }

func (p pairControl) firstScalar(d *toolstate.Document) *toolstate.Scalar {
	g := p.get(d)
	if g == nil || !g.Available {
		return nil
	}
	return &g.First
}

func (p pairControl) secondScalar(d *toolstate.Document) *toolstate.Scalar {
	g := p.get(d)
	if g == nil || !g.Available {
		return nil
	}
	return &g.Second
}

func (p pairControl) bind(w *Window) {
	w.bindScalar(p.id, p.id+"-first", p.firstHandler, p.firstScalar)
	w.bindScalar(p.id, p.id+"-second", p.secondHandler, p.secondScalar)
}

func (p pairControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.AxisPair
	if doc != nil {
		g = p.get(doc)
	}
	if g == nil || !g.Available {
		syncScalarControl(w, p.id+"-first", nil, false, false)
		syncScalarControl(w, p.id+"-second", nil, false, false)
		return
	}
	syncScalarControl(w, p.id+"-first", &g.First, true, g.Disabled)
	syncScalarControl(w, p.id+"-second", &g.Second, true, g.Disabled)
}

// presetControl is a one-of-N chooser.
type presetControl struct {
	id      string
	handler string
	get     func(*toolstate.Document) *toolstate.PresetBank
}

func (p presetControl) group() string { return p.id }

func (p presetControl) bind(w *Window) {
	if w.r.Control(p.id) == nil {
		return
	}
	w.registerMarker(p.id, p.id)
	w.r.Bind(p.id, panel.Events{
		OnSelect: func(id string) {
			gen := w.nextGen(p.id)
			res := w.c.InvokeToolHandler(p.handler, id, true)
			w.settle(p.id, gen, res)
		},
	})
}

func (p presetControl) sync(w *Window, doc *toolstate.Document) {
	c := w.r.Control(p.id)
	if c == nil {
		return
	}
	var g *toolstate.PresetBank
	if doc != nil {
		g = p.get(doc)
	}
	if g == nil || !g.Available {
		if c.Visible() {
			c.SetVisible(false)
		}
		return
	}
	if !c.Visible() {
		c.SetVisible(true)
	}
	if c.Disabled() != g.Disabled {
		c.SetDisabled(g.Disabled)
	}
	sc, ok := c.(panel.SelectControl)
	if !ok {
		return
	}
	ids := make([]string, len(g.Presets))
	labels := make([]string, len(g.Presets))
	for i, pr := range g.Presets {
		ids[i], labels[i] = pr.ID, pr.Label
	}
	sc.SetOptions(ids, labels)
	if !c.Focused() && sc.Selected() != g.Active {
		sc.SetSelected(g.Active)
	}
}

// syncSelectField patches a labelled dropdown inside a composite group.
func syncSelectField(w *Window, marker string, f *toolstate.SelectField, visible, disabled bool) {
	c := w.r.Control(marker)
	if c == nil {
		return
	}
	if f == nil || !visible {
		if c.Visible() {
			c.SetVisible(false)
		}
		return
	}
	if !c.Visible() {
		c.SetVisible(true)
	}
	if c.Disabled() != disabled {
		c.SetDisabled(disabled)
	}
	sc, ok := c.(panel.SelectControl)
	if !ok {
		return
	}
	ids := make([]string, len(f.Choices))
	labels := make([]string, len(f.Choices))
	for i, ch := range f.Choices {
		ids[i], labels[i] = ch.ID, ch.Label
	}
	sc.SetOptions(ids, labels)
	if !c.Focused() && sc.Selected() != f.Value {
		sc.SetSelected(f.Value)
	}
}

// fixtureControl is a door/window fixture group: a width slider plus state
// and variant dropdowns.
type fixtureControl struct {
	id             string
	widthHandler   string
	stateHandler   string
	variantHandler string
	get            func(*toolstate.Document) *toolstate.Fixture
}

func (f fixtureControl) group() string { return f.id }

func (f fixtureControl) widthScalar(d *toolstate.Document) *toolstate.Scalar {
	g := f.get(d)
	if g == nil || !g.Available {
		return nil
	}
	return &g.Width
}

func (f fixtureControl) bind(w *Window) {
	w.bindScalar(f.id, f.id+"-width", f.widthHandler, f.widthScalar)
	for _, part := range []struct {
		marker  string
		handler string
	}{
		{f.id + "-state", f.stateHandler},
		{f.id + "-variant", f.variantHandler},
	} {
		part := part
		if w.r.Control(part.marker) == nil {
			continue
		}
		w.registerMarker(part.marker, f.id)
		w.r.Bind(part.marker, panel.Events{
			OnSelect: func(id string) {
				gen := w.nextGen(part.marker)
				res := w.c.InvokeToolHandler(part.handler, id, true)
				w.settle(part.marker, gen, res)
			},
		})
	}
}

func (f fixtureControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.Fixture
	if doc != nil {
		g = f.get(doc)
	}
	if g == nil || !g.Available {
		syncScalarControl(w, f.id+"-width", nil, false, false)
		syncSelectField(w, f.id+"-state", nil, false, false)
		syncSelectField(w, f.id+"-variant", nil, false, false)
		return
	}
	syncScalarControl(w, f.id+"-width", &g.Width, true, g.Disabled)
	syncSelectField(w, f.id+"-state", &g.State, true, g.Disabled)
	syncSelectField(w, f.id+"-variant", &g.Variant, true, g.Disabled)
}

const (
	markerNamingInput   = "place-as-name-input"
	markerNamingCounter = "place-as-name-counter"
)

// namingControl is the optional "place as" naming section.
type namingControl struct{}

func (namingControl) group() string { return toolstate.GroupPlaceAsName }

func (n namingControl) bind(w *Window) {
	if w.r.Control(markerNamingInput) != nil {
		w.registerMarker(markerNamingInput, n.group())
		w.r.Bind(markerNamingInput, panel.Events{
			OnInput: func(v string, commit bool) {
				w.scalarInput(markerNamingInput, "setPlaceAsName", v, commit)
			},
		})
	}
	if w.r.Control(markerNamingCounter) != nil {
		w.registerMarker(markerNamingCounter, n.group())
		w.r.Bind(markerNamingCounter, panel.Events{
			OnToggle: func(on bool) {
				gen := w.nextGen(markerNamingCounter)
				res := w.c.InvokeToolHandler("setPlaceAsNameCounter", on)
				w.settle(markerNamingCounter, gen, res)
			},
		})
	}
}

func (namingControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.Naming
	if doc != nil {
		g = doc.PlaceAsName
	}
	visible := g != nil && g.Available
	if c, ok := w.r.Control(markerNamingInput).(panel.ValueControl); ok && c != nil {
		if c.Visible() != visible {
			c.SetVisible(visible)
		}
		if visible && !c.Focused() && c.Value() != g.Name {
			c.SetValue(g.Name)
		}
	}
	if c, ok := w.r.Control(markerNamingCounter).(panel.ToggleControl); ok && c != nil {
		if c.Visible() != visible {
			c.SetVisible(visible)
		}
		if visible && c.Checked() != g.CounterEnabled {
			c.SetChecked(g.CounterEnabled)
		}
	}
}

const (
	markerShadowEnabled = "drop-shadow-enabled"
	markerShadowDial    = "drop-shadow-dial"
	markerShadowPreview = "drop-shadow-preview"
)

// dropShadowControl is the drop-shadow group: enable toggle, polar offset
// dial clamped to the document's max radius, and a preview thumbnail.
type dropShadowControl struct{}

func (dropShadowControl) group() string { return toolstate.GroupDropShadow }

func (d dropShadowControl) bind(w *Window) {
	if w.r.Control(markerShadowEnabled) != nil {
		w.registerMarker(markerShadowEnabled, d.group())
		w.r.Bind(markerShadowEnabled, panel.Events{
			OnToggle: func(on bool) {
				gen := w.nextGen(markerShadowEnabled)
				res := w.c.RequestDropShadowToggle(on)
				w.settle(markerShadowEnabled, gen, res)
			},
		})
	}
	if w.r.Control(markerShadowDial) != nil {
		w.registerMarker(markerShadowDial, d.group())
		w.r.Bind(markerShadowDial, panel.Events{
			OnDrag: func(dx, dy float64, done bool) { w.shadowDrag(dx, dy, done) },
		})
	}
}

// shadowDrag converts a dial-local drag position into a clamped polar offset
// and forwards it with the drag's commit flag.
func (w *Window) shadowDrag(dx, dy float64, done bool) {
	w.c.mu.Lock()
	var ds *toolstate.DropShadow
	if w.doc != nil {
		ds = w.doc.DropShadow
	}
	w.c.mu.Unlock()
	if ds == nil || !ds.Available || ds.Disabled {
		return
	}
	dist := math.Hypot(dx, dy)
	if dist > ds.MaxRadius {
		dist = ds.MaxRadius
	}
	angle := math.Atan2(dy, dx) * 180 / math.Pi
	for angle < 0 {
		angle += 360
	}
	dist = math.Round(dist*10) / 10
	angle = math.Round(angle*10) / 10

	gen := w.nextGen(markerShadowDial)
	res := w.c.InvokeToolHandler("setDropShadowOffset", dist, angle, done)
	w.settle(markerShadowDial, gen, res)
}

func (dropShadowControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.DropShadow
	if doc != nil {
		g = doc.DropShadow
	}
	visible := g != nil && g.Available
	if c, ok := w.r.Control(markerShadowEnabled).(panel.ToggleControl); ok && c != nil {
		if c.Visible() != visible {
			c.SetVisible(visible)
		}
		if visible {
			if c.Disabled() != g.Disabled {
				c.SetDisabled(g.Disabled)
			}
			if c.Checked() != g.Enabled {
				c.SetChecked(g.Enabled)
			}
		}
	}
	if c, ok := w.r.Control(markerShadowDial).(panel.DialControl); ok && c != nil {
		if c.Visible() != visible {
			c.SetVisible(visible)
		}
		if visible && !c.Focused() {
			if dist, ang, maxR := c.Polar(); dist != g.Offset.Distance || ang != g.Offset.Angle || maxR != g.MaxRadius {
				c.SetPolar(g.Offset.Distance, g.Offset.Angle, g.MaxRadius)
			}
		}
	}
	if c, ok := w.r.Control(markerShadowPreview).(panel.PreviewControl); ok && c != nil {
		show := visible && g.Preview != nil
		if c.Visible() != show {
			c.SetVisible(show)
		}
		if show && c.Signature() != g.Preview.Signature {
			c.SetImage(g.Preview.Src, g.Preview.Signature, g.Preview.Width, g.Preview.Height)
		}
	}
}

// customToggleMarker derives the marker for one custom-toggle item.
func customToggleMarker(id string) string { return "custom-toggle-" + id }

// customTogglesControl is the per-tool shortcut toggle list. Items are
// layout-time structure: changing the item set requires a layout revision
// bump from the pushing tool.
type customTogglesControl struct{}

func (customTogglesControl) group() string { return toolstate.GroupCustomToggles }

func (ct customTogglesControl) bind(w *Window) {
	if w.doc == nil || w.doc.CustomToggles == nil {
		return
	}
	for _, item := range w.doc.CustomToggles.Items {
		item := item
		marker := customToggleMarker(item.ID)
		if w.r.Control(marker) == nil {
			continue
		}
		w.registerMarker(marker, ct.group())
		w.r.Bind(marker, panel.Events{
			OnToggle: func(on bool) {
				gen := w.nextGen(marker)
				res := w.c.RequestCustomToggle(item.ID, on)
				w.settle(marker, gen, res)
			},
		})
	}
}

func (customTogglesControl) sync(w *Window, doc *toolstate.Document) {
	var g *toolstate.ToggleSet
	if doc != nil {
		g = doc.CustomToggles
	}
	if g == nil {
		return
	}
	for _, item := range g.Items {
		c, ok := w.r.Control(customToggleMarker(item.ID)).(panel.ToggleControl)
		if !ok || c == nil {
			continue
		}
		if c.Visible() != g.Available {
			c.SetVisible(g.Available)
		}
		if c.Disabled() != item.Disabled {
			c.SetDisabled(item.Disabled)
		}
		if g.Available && !c.Focused() && c.Checked() != item.Enabled {
			c.SetChecked(item.Enabled)
		}
	}
}

const (
	markerGridSnap        = "grid-snap"
	markerGridSubdivision = "grid-subdivision"
)

// gridControl mirrors the process-wide grid-snap settings. Its values come
// from the Controller's cache, not the tool document, so it is present in
// every layout.
type gridControl struct{}

func (gridControl) group() string { return groupGrid }

func (g gridControl) bind(w *Window) {
	if w.r.Control(markerGridSnap) != nil {
		w.registerMarker(markerGridSnap, g.group())
		w.r.Bind(markerGridSnap, panel.Events{
			OnToggle: func(on bool) { w.c.RequestGridSnapToggle(on) },
		})
	}
	if w.r.Control(markerGridSubdivision) != nil {
		w.registerMarker(markerGridSubdivision, g.group())
		w.r.Bind(markerGridSubdivision, panel.Events{
			OnInput: func(v string, commit bool) {
				if !commit {
					return
				}
				n, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil || !w.c.RequestGridSnapSubdivisionChange(n) {
					w.c.mu.Lock()
					w.syncGroup(groupGrid)
					w.c.mu.Unlock()
				}
			},
		})
	}
}

func (gridControl) sync(w *Window, doc *toolstate.Document) {
	if c, ok := w.r.Control(markerGridSnap).(panel.ToggleControl); ok && c != nil {
		if c.Checked() != w.c.gridSnap {
			c.SetChecked(w.c.gridSnap)
		}
	}
	if c, ok := w.r.Control(markerGridSubdivision).(panel.ValueControl); ok && c != nil {
		if want := strconv.Itoa(w.c.gridSubdiv); !c.Focused() && c.Value() != want {
			c.SetValue(want)
		}
	}
}
