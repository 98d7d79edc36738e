/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package panel abstracts the floating options window away from any concrete
// widget toolkit. The options engine talks only to Renderer and the Control
// interfaces; the Fyne implementation and the in-memory one used in tests both
// satisfy them.
package panel

// Kind identifies which realized control a spec produces.
type Kind int

const (
	KindNumeric Kind = iota
	KindToggle
	KindPair
	KindSelect
	KindDial
	KindText
	KindPreview
	KindButton
)

// ControlSpec declares one control inside a section. Marker is the stable
// identifier the engine uses to find the realized control again after a
// rebuild; markers are unique within a layout.
type ControlSpec struct {
	Marker  string
	Kind    Kind
	Label   string
	Tooltip string
	// Secondary marker for composite controls (the second scalar of a pair,
	// the entry beside a slider). Optional.
	SubMarkers []string
}

// Section is a titled, collapsible run of controls.
type Section struct {
	ID          string
	Title       string
	Collapsible bool
	Collapsed   bool
	Controls    []ControlSpec
}

// Layout is the full declarative description of the panel contents.
type Layout struct {
	Title    string
	Sections []Section
}

// Geometry is the panel's saved position and size in screen pixels.
type Geometry struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Events carries the callbacks the engine binds to one realized control.
// Unused callbacks stay nil.
type Events struct {
	// OnInput fires for text/numeric value edits. commit is false while the
	// user is still dragging or typing, true on release/submit.
	OnInput func(value string, commit bool)
	// OnToggle fires when a checkbox changes.
	OnToggle func(enabled bool)
	// OnSelect fires when a dropdown or preset choice changes.
	OnSelect func(id string)
	// OnClick fires for plain buttons.
	OnClick func()
	// OnWheel fires for scroll-wheel nudges over a numeric control. fine
	// requests the reduced fine-tune step when the host distinguishes a
	// modifier for it (Alt on desktop).
	OnWheel func(delta int, shift, ctrl, fine bool)
	// OnReset fires on the reset gesture (right-click).
	OnReset func()
	// OnDrag fires for dial dragging; done marks the final position.
	OnDrag func(dx, dy float64, done bool)
}

// Control is a realized widget the engine can write state into. Writes must
// be no-ops when the incoming state already matches, and must never touch a
// control the user is interacting with.
type Control interface {
	Marker() string
	Kind() Kind
	SetVisible(visible bool)
	Visible() bool
	SetDisabled(disabled bool)
	Disabled() bool
	// Focused reports whether the user is actively editing this control.
	Focused() bool
}

// ValueControl is a control carrying a single displayed value.
type ValueControl interface {
	Control
	SetValue(v string)
	Value() string
}

// RangeControl is a numeric control with bounds and step.
type RangeControl interface {
	ValueControl
	SetRange(min, max, step float64)
	Range() (min, max, step float64)
}

// ToggleControl is a boolean control.
type ToggleControl interface {
	Control
	SetChecked(on bool)
	Checked() bool
}

// SelectControl is a one-of-N control.
type SelectControl interface {
	Control
	SetOptions(ids, labels []string)
	SetSelected(id string)
	Selected() string
}

// DialControl is the polar offset dial.
type DialControl interface {
	Control
	SetPolar(distance, angle, maxRadius float64)
	Polar() (distance, angle, maxRadius float64)
}

// PreviewControl shows a rendered thumbnail keyed by signature.
type PreviewControl interface {
	Control
	SetImage(src, signature string, width, height int)
	Signature() string
}

// Renderer realizes layouts into a concrete window. Implementations are not
// required to be goroutine-safe; the engine serializes access.
type Renderer interface {
	// Rebuild tears down the current contents and realizes the layout from
	// scratch. All previous Control handles become invalid.
	Rebuild(l Layout)
	// Control returns the realized control for a marker, or nil when the
	// current layout has no such control.
	Control(marker string) Control
	// Bind attaches event callbacks to a realized control. Binding a marker
	// twice replaces the earlier callbacks.
	Bind(marker string, ev Events)
	// Unbind detaches all callbacks from a marker.
	Unbind(marker string)
	// HasSection reports whether the current layout realized a section.
	HasSection(id string) bool
	// SetSectionCollapsed folds or unfolds a collapsible section.
	SetSectionCollapsed(id string, collapsed bool)
	SetTitle(title string)
	Title() string

	ScrollOffset() float64
	SetScrollOffset(off float64)
	ContentSize() (w, h float64)
	SetContentSize(w, h float64)

	Geometry() Geometry
	SetGeometry(g Geometry)

	Show()
	Close()
	// OnClosed registers a callback invoked when the window is closed by the
	// user or by Close.
	OnClosed(fn func())
}
