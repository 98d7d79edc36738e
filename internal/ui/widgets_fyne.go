//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"math"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// nudgeSlider is the numeric slider with the extra gestures the panel needs:
// scroll-wheel nudging with modifier keys and right-click reset.
type nudgeSlider struct {
	widget.Slider
	ctl *fyneControl
}

func newNudgeSlider(c *fyneControl) *nudgeSlider {
	s := &nudgeSlider{ctl: c}
	s.Min, s.Max, s.Step = 0, 100, 1
	s.ExtendBaseWidget(s)
	s.OnChanged = func(v float64) {
		if c.muted || c.ev.OnInput == nil {
			return
		}
		c.value = strconv.FormatFloat(v, 'f', -1, 64)
		c.ev.OnInput(c.value, false)
	}
	s.OnChangeEnded = func(v float64) {
		if c.muted || c.ev.OnInput == nil {
			return
		}
		c.value = strconv.FormatFloat(v, 'f', -1, 64)
		c.ev.OnInput(c.value, true)
	}
	return s
}

func (s *nudgeSlider) Scrolled(e *fyne.ScrollEvent) {
	if s.ctl.ev.OnWheel == nil {
		return
	}
	delta := 1
	if e.Scrolled.DY < 0 {
		delta = -1
	}
	s.ctl.ev.OnWheel(delta, s.ctl.r.shift, s.ctl.r.ctrl, s.ctl.r.alt)
}

func (s *nudgeSlider) TappedSecondary(*fyne.PointEvent) {
	if s.ctl.ev.OnReset != nil {
		s.ctl.ev.OnReset()
	}
}

// valueEntry is the typed-value entry beside a slider (and the naming input).
// It tracks focus so the engine's focus guard can skip writes mid-edit, and
// commits on submit or blur.
type valueEntry struct {
	widget.Entry
	ctl *fyneControl
}

func newValueEntry(c *fyneControl) *valueEntry {
	e := &valueEntry{ctl: c}
	e.ExtendBaseWidget(e)
	e.OnChanged = func(text string) {
		if c.muted || c.ev.OnInput == nil {
			return
		}
		c.value = text
		c.ev.OnInput(text, false)
	}
	e.OnSubmitted = func(text string) {
		if c.muted || c.ev.OnInput == nil {
			return
		}
		c.value = text
		c.ev.OnInput(text, true)
	}
	return e
}

func (e *valueEntry) FocusGained() {
	e.ctl.focused = true
	e.Entry.FocusGained()
}

func (e *valueEntry) FocusLost() {
	e.Entry.FocusLost()
	e.ctl.focused = false
	if e.ctl.muted || e.ctl.ev.OnInput == nil {
		return
	}
	e.ctl.value = e.Text
	e.ctl.ev.OnInput(e.Text, true)
}

// offsetDial is the polar drop-shadow offset dial: a ring with a draggable
// knob. Drags report the knob's absolute dial-local position in offset units;
// the engine owns the polar math and writes the clamped position back through
// setPolar.
type offsetDial struct {
	widget.BaseWidget
	ctl *fyneControl

	dist, angle, maxR float64

	dragging     bool
	dragX, dragY float64
}

func newOffsetDial(c *fyneControl) *offsetDial {
	d := &offsetDial{ctl: c, maxR: 64}
	d.ExtendBaseWidget(d)
	return d
}

func (d *offsetDial) setPolar(dist, angle, maxR float64) {
	if dist == d.dist && angle == d.angle && maxR == d.maxR {
		return
	}
	d.dist, d.angle, d.maxR = dist, angle, maxR
	d.Refresh()
}

// unitsPerPixel maps screen drag pixels onto offset units, using the same
// ring radius the dial renderer lays out with. Before the first layout the
// size is zero and pixels pass through unscaled.
func (d *offsetDial) unitsPerPixel() float64 {
	sz := d.Size()
	radius := float64(fyne.Min(sz.Width, sz.Height))/2 - 8
	if radius <= 0 || d.maxR <= 0 {
		return 1
	}
	return d.maxR / radius
}

// Dragged seeds the knob position from the current polar offset on the first
// event of a gesture, then accumulates Fyne's per-event deltas onto it, so
// every report carries the absolute dial-local position.
func (d *offsetDial) Dragged(e *fyne.DragEvent) {
	if d.ctl.ev.OnDrag == nil {
		return
	}
	if !d.dragging {
		d.dragging = true
		rad := d.angle * math.Pi / 180
		d.dragX = d.dist * math.Cos(rad)
		d.dragY = d.dist * math.Sin(rad)
	}
	scale := d.unitsPerPixel()
	d.dragX += float64(e.Dragged.DX) * scale
	d.dragY += float64(e.Dragged.DY) * scale
	d.ctl.ev.OnDrag(d.dragX, d.dragY, false)
}

func (d *offsetDial) DragEnd() {
	if !d.dragging {
		return
	}
	d.dragging = false
	if d.ctl.ev.OnDrag != nil {
		d.ctl.ev.OnDrag(d.dragX, d.dragY, true)
	}
}

func (d *offsetDial) CreateRenderer() fyne.WidgetRenderer {
	ring := canvas.NewCircle(color.Transparent)
	ring.StrokeColor = color.NRGBA{R: 120, G: 124, B: 132, A: 255}
	ring.StrokeWidth = 2
	knob := canvas.NewCircle(color.NRGBA{R: 66, G: 133, B: 244, A: 255})
	return &dialRenderer{d: d, ring: ring, knob: knob}
}

type dialRenderer struct {
	d    *offsetDial
	ring *canvas.Circle
	knob *canvas.Circle
}

func (r *dialRenderer) Layout(size fyne.Size) {
	cx, cy := size.Width/2, size.Height/2
	radius := fyne.Min(cx, cy) - 8
	if radius < 0 {
		radius = 0
	}
	r.ring.Resize(fyne.NewSize(radius*2, radius*2))
	r.ring.Move(fyne.NewPos(cx-radius, cy-radius))

	frac := 0.0
	if r.d.maxR > 0 {
		frac = r.d.dist / r.d.maxR
	}
	rad := r.d.angle * math.Pi / 180
	kx := cx + float32(frac*math.Cos(rad))*radius
	ky := cy + float32(frac*math.Sin(rad))*radius
	const knobR = 6
	r.knob.Resize(fyne.NewSize(knobR*2, knobR*2))
	r.knob.Move(fyne.NewPos(kx-knobR, ky-knobR))
}

func (r *dialRenderer) MinSize() fyne.Size { return fyne.NewSize(120, 120) }

func (r *dialRenderer) Refresh() {
	r.Layout(r.d.Size())
	canvas.Refresh(r.d)
}

func (r *dialRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.ring, r.knob}
}

func (r *dialRenderer) Destroy() {}
