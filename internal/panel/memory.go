/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package panel

import "fmt"

// MemoryRenderer is a widgetless Renderer used by the engine's tests and the
// headless CLI. It realizes layouts into plain structs, records rebuilds and
// writes, and can simulate user gestures through the Simulate* helpers.
type MemoryRenderer struct {
	layout   Layout
	title    string
	controls map[string]Control
	bindings map[string]Events
	sections map[string]*memSection

	scrollOff        float64
	contentW         float64
	contentH         float64
	geometry         Geometry
	shown            bool
	closed           bool
	onClosed         []func()
	RebuildCount     int
	// DropWrites makes the next N value/check writes silently not take
	// effect, simulating a toolkit that has not realized the widget yet.
	DropWrites int
}

// NewMemoryRenderer returns an empty renderer with no realized layout.
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{
		controls: map[string]Control{},
		bindings: map[string]Events{},
		sections: map[string]*memSection{},
	}
}

type memSection struct {
	id        string
	collapsed bool
}

func (m *MemoryRenderer) Rebuild(l Layout) {
	m.layout = l
	m.title = l.Title
	m.controls = map[string]Control{}
	m.bindings = map[string]Events{}
	m.sections = map[string]*memSection{}
	m.RebuildCount++
	for _, sec := range l.Sections {
		m.sections[sec.ID] = &memSection{id: sec.ID, collapsed: sec.Collapsed}
		for _, cs := range sec.Controls {
			m.controls[cs.Marker] = newMemControl(m, cs)
			for _, sub := range cs.SubMarkers {
				subSpec := cs
				subSpec.Marker = sub
				m.controls[sub] = newMemControl(m, subSpec)
			}
		}
	}
}

func (m *MemoryRenderer) Control(marker string) Control {
	c, ok := m.controls[marker]
	if !ok {
		return nil
	}
	return c
}

func (m *MemoryRenderer) Bind(marker string, ev Events)   { m.bindings[marker] = ev }
func (m *MemoryRenderer) Unbind(marker string)            { delete(m.bindings, marker) }
func (m *MemoryRenderer) HasSection(id string) bool       { _, ok := m.sections[id]; return ok }
func (m *MemoryRenderer) SetTitle(title string)           { m.title = title }
func (m *MemoryRenderer) Title() string                   { return m.title }
func (m *MemoryRenderer) ScrollOffset() float64           { return m.scrollOff }
func (m *MemoryRenderer) SetScrollOffset(off float64)     { m.scrollOff = off }
func (m *MemoryRenderer) ContentSize() (w, h float64)     { return m.contentW, m.contentH }
func (m *MemoryRenderer) SetContentSize(w, h float64)     { m.contentW, m.contentH = w, h }
func (m *MemoryRenderer) Geometry() Geometry              { return m.geometry }
func (m *MemoryRenderer) SetGeometry(g Geometry)          { m.geometry = g }
func (m *MemoryRenderer) Show()                           { m.shown = true; m.closed = false }
func (m *MemoryRenderer) OnClosed(fn func())              { m.onClosed = append(m.onClosed, fn) }

func (m *MemoryRenderer) SetSectionCollapsed(id string, collapsed bool) {
	if s, ok := m.sections[id]; ok {
		s.collapsed = collapsed
	}
}

func (m *MemoryRenderer) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.shown = false
	for _, fn := range m.onClosed {
		fn()
	}
}

// Shown reports whether the panel is currently visible.
func (m *MemoryRenderer) Shown() bool { return m.shown }

// SectionCollapsed reports a section's fold state.
func (m *MemoryRenderer) SectionCollapsed(id string) bool {
	if s, ok := m.sections[id]; ok {
		return s.collapsed
	}
	return false
}

// Bound reports whether a marker currently has event callbacks attached.
func (m *MemoryRenderer) Bound(marker string) bool {
	_, ok := m.bindings[marker]
	return ok
}

// Simulate* drive the bound callbacks the way a user gesture would.

func (m *MemoryRenderer) SimulateInput(marker, value string, commit bool) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnInput == nil {
		return fmt.Errorf("no input binding for %q", marker)
	}
	if c, ok := m.controls[marker].(*memControl); ok {
		c.value = value
	}
	ev.OnInput(value, commit)
	return nil
}

func (m *MemoryRenderer) SimulateToggle(marker string, on bool) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnToggle == nil {
		return fmt.Errorf("no toggle binding for %q", marker)
	}
	if c, ok := m.controls[marker].(*memControl); ok {
		c.checked = on
	}
	ev.OnToggle(on)
	return nil
}

func (m *MemoryRenderer) SimulateSelect(marker, id string) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnSelect == nil {
		return fmt.Errorf("no select binding for %q", marker)
	}
	if c, ok := m.controls[marker].(*memControl); ok {
		c.selected = id
	}
	ev.OnSelect(id)
	return nil
}

func (m *MemoryRenderer) SimulateClick(marker string) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnClick == nil {
		return fmt.Errorf("no click binding for %q", marker)
	}
	ev.OnClick()
	return nil
}

func (m *MemoryRenderer) SimulateWheel(marker string, delta int, shift, ctrl, fine bool) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnWheel == nil {
		return fmt.Errorf("no wheel binding for %q", marker)
	}
	ev.OnWheel(delta, shift, ctrl, fine)
	return nil
}

func (m *MemoryRenderer) SimulateReset(marker string) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnReset == nil {
		return fmt.Errorf("no reset binding for %q", marker)
	}
	ev.OnReset()
	return nil
}

func (m *MemoryRenderer) SimulateDrag(marker string, dx, dy float64, done bool) error {
	ev, ok := m.bindings[marker]
	if !ok || ev.OnDrag == nil {
		return fmt.Errorf("no drag binding for %q", marker)
	}
	ev.OnDrag(dx, dy, done)
	return nil
}

// SetFocused marks a control as actively edited, for focus-guard tests.
func (m *MemoryRenderer) SetFocused(marker string, focused bool) {
	if c, ok := m.controls[marker].(*memControl); ok {
		c.focused = focused
	}
}

// memControl is a single realized control. One struct backs every Kind; the
// typed interfaces just expose different slices of it.
type memControl struct {
	r        *MemoryRenderer
	marker   string
	kind     Kind
	visible  bool
	disabled bool
	focused  bool

	value            string
	min, max, step   float64
	checked          bool
	optIDs, optLbls  []string
	selected         string
	dist, ang, maxR  float64
	imgSrc, imgSig   string
	imgW, imgH       int
}

func newMemControl(r *MemoryRenderer, cs ControlSpec) *memControl {
	return &memControl{r: r, marker: cs.Marker, kind: cs.Kind, visible: true}
}

func (c *memControl) Marker() string            { return c.marker }
func (c *memControl) Kind() Kind                { return c.kind }
func (c *memControl) SetVisible(visible bool)   { c.visible = visible }
func (c *memControl) Visible() bool             { return c.visible }
func (c *memControl) SetDisabled(disabled bool) { c.disabled = disabled }
func (c *memControl) Disabled() bool            { return c.disabled }
func (c *memControl) Focused() bool             { return c.focused }

func (c *memControl) dropWrite() bool {
	if c.r.DropWrites > 0 {
		c.r.DropWrites--
		return true
	}
	return false
}

func (c *memControl) SetValue(v string) {
	if c.dropWrite() {
		return
	}
	c.value = v
}
func (c *memControl) Value() string { return c.value }

func (c *memControl) SetRange(min, max, step float64) {
	c.min, c.max, c.step = min, max, step
}
func (c *memControl) Range() (float64, float64, float64) { return c.min, c.max, c.step }

func (c *memControl) SetChecked(on bool) {
	if c.dropWrite() {
		return
	}
	c.checked = on
}
func (c *memControl) Checked() bool { return c.checked }

func (c *memControl) SetOptions(ids, labels []string) { c.optIDs, c.optLbls = ids, labels }
func (c *memControl) SetSelected(id string) {
	if c.dropWrite() {
		return
	}
	c.selected = id
}
func (c *memControl) Selected() string { return c.selected }

func (c *memControl) SetPolar(distance, angle, maxRadius float64) {
	c.dist, c.ang, c.maxR = distance, angle, maxRadius
}
func (c *memControl) Polar() (float64, float64, float64) { return c.dist, c.ang, c.maxR }

func (c *memControl) SetImage(src, signature string, width, height int) {
	c.imgSrc, c.imgSig, c.imgW, c.imgH = src, signature, width, height
}
func (c *memControl) Signature() string { return c.imgSig }

var (
	_ Renderer       = (*MemoryRenderer)(nil)
	_ RangeControl   = (*memControl)(nil)
	_ ToggleControl  = (*memControl)(nil)
	_ SelectControl  = (*memControl)(nil)
	_ DialControl    = (*memControl)(nil)
	_ PreviewControl = (*memControl)(nil)
)
