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
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"mapforge/internal/crash"
	applog "mapforge/internal/log"
	"mapforge/internal/panel"
	"mapforge/internal/preview"
	"mapforge/internal/settings"
	"mapforge/internal/telemetry"
	"mapforge/internal/tooloptions"
	"mapforge/internal/toolstate"
	"mapforge/internal/version"
)

// Run starts the desktop harness: a small tool launcher plus the floating
// options panel rendered with Fyne. In production the panel is hosted by the
// tabletop platform; this shell exists so panel behavior can be exercised
// end to end without a browser.
func Run(settingsPath string) error {
	applog.Init(applog.FromEnv())
	telemetry.InitDefault()
	l := applog.WithComponent("ui")
	l.Info("starting UI", "version", version.String())

	if settingsPath == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return err
		}
		settingsPath = p
	}
	st, err := settings.Open(settingsPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	defer crash.Recover(st)

	fyneApp := app.NewWithID("mapforge")
	main := fyneApp.NewWindow("MapForge " + version.String())
	main.Resize(fyne.NewSize(360, 280))

	ctrl := tooloptions.NewController(tooloptions.Config{
		Settings:    st,
		NewRenderer: func() panel.Renderer { return newRenderer(fyneApp) },
		Notifier:    dialogNotifier{win: main},
	})

	status := widget.NewLabel("No active tool")
	ctrl.AddStateListener(func(ws tooloptions.WindowState) {
		text := "No active tool"
		if ws.HasActiveTool {
			text = "Active: " + ws.ActiveToolID
		}
		fyne.Do(func() { status.SetText(text) })
	})

	gen := preview.NewGenerator(preview.DefaultSize)
	tools := []struct {
		id, label string
		doc       func() *toolstate.Document
	}{
		{"paths", "Path Tool", demoPathDoc},
		{"assets", "Asset Tool", demoAssetDoc},
		{"textures", "Texture Brush", demoTextureDoc},
	}

	buttons := container.NewVBox()
	for _, tool := range tools {
		tool := tool
		buttons.Add(widget.NewButton(tool.label, func() {
			doc := tool.doc()
			ctrl.ActivateTool(tool.id, tool.label)
			ctrl.SetToolOptions(tool.id, tooloptions.Options{
				State:    doc,
				Handlers: demoHandlers(ctrl, gen, tool.id, doc),
			})
		}))
	}
	buttons.Add(widget.NewSeparator())
	buttons.Add(widget.NewButton("Deactivate Active Tool", func() {
		if ws := ctrl.GetWindowState(); ws.HasActiveTool {
			ctrl.DeactivateTool(ws.ActiveToolID)
		}
	}))

	main.SetContent(container.NewBorder(nil, status, nil, nil, buttons))
	main.ShowAndRun()
	telemetry.Flush(context.Background())
	return nil
}

type dialogNotifier struct{ win fyne.Window }

func (n dialogNotifier) Warn(msg string) {
	fyne.Do(func() { dialog.ShowInformation("MapForge", msg, n.win) })
}

// demoHandlers accepts every request and keeps the demo document in step, so
// settle() re-reads the value the user just committed. The drop-shadow offset
// handler also regenerates the preview thumbnail.
func demoHandlers(ctrl *tooloptions.Controller, gen *preview.Generator, toolID string, doc *toolstate.Document) tooloptions.HandlerTable {
	h := tooloptions.HandlerTable{}
	h["setDropShadowOffset"] = func(args ...any) any {
		if doc.DropShadow == nil || len(args) < 3 {
			return false
		}
		dist, _ := args[0].(float64)
		angle, _ := args[1].(float64)
		done, _ := args[2].(bool)
		doc.DropShadow.Offset = toolstate.Polar{Distance: dist, Angle: angle}
		if done {
			if p := gen.Render(doc.DropShadow); p != nil {
				ctrl.UpdateDropShadowPreview(toolID, p)
			}
		}
		return true
	}
	h[tooloptions.HandlerSetDropShadowEnabled] = func(args ...any) any {
		if doc.DropShadow == nil || len(args) < 1 {
			return false
		}
		doc.DropShadow.Enabled, _ = args[0].(bool)
		return true
	}
	return h
}

func scalar(min, max, step, value float64, display string) toolstate.Scalar {
	return toolstate.Scalar{Min: min, Max: max, Step: step, Value: value, Display: display, DefaultValue: &value}
}

func demoPathDoc() *toolstate.Document {
	return &toolstate.Document{
		LayoutRev:         "demo-paths-1",
		Opacity:           &toolstate.Numeric{Available: true, Scalar: scalar(0, 100, 1, 100, "N%")},
		PathShadowScale:   &toolstate.Numeric{Available: true, Scalar: scalar(10, 250, 1, 100, "N%")},
		PathShadowOpacity: &toolstate.Numeric{Available: true, Scalar: scalar(0, 100, 1, 60, "N%")},
		PathShadowPreset: &toolstate.PresetBank{Available: true, Active: "soft", Presets: []toolstate.Preset{
			{ID: "soft", Label: "Soft"}, {ID: "hard", Label: "Hard"}, {ID: "none", Label: "None"},
		}},
		PathFeather: &toolstate.AxisPair{
			Available: true, FirstLabel: "Feather start", SecondLabel: "Feather end",
			First: scalar(0, 50, 0.5, 0, ""), Second: scalar(0, 50, 0.5, 0, ""),
		},
	}
}

func demoAssetDoc() *toolstate.Document {
	return &toolstate.Document{
		LayoutRev: "demo-assets-1",
		Opacity:   &toolstate.Numeric{Available: true, Scalar: scalar(0, 100, 1, 100, "N%")},
		Scale:     &toolstate.Numeric{Available: true, Scalar: scalar(10, 400, 1, 100, "N%")},
		Rotation:  &toolstate.Numeric{Available: true, Scalar: scalar(-180, 180, 1, 0, "N°")},
		FlipH:     &toolstate.Toggle{Available: true, Label: "Flip horizontally"},
		FlipV:     &toolstate.Toggle{Available: true, Label: "Flip vertically"},
		DropShadow: &toolstate.DropShadow{
			Available: true, Enabled: true, MaxRadius: 64,
			Offset: toolstate.Polar{Distance: 12, Angle: 45},
		},
		PlaceAsName: &toolstate.Naming{Available: true, Placeholder: "Name placed copies"},
		CustomToggles: &toolstate.ToggleSet{Available: true, Items: []toolstate.ToggleItem{
			{ID: "snapCenter", Label: "Snap to tile center", Enabled: true},
			{ID: "autoShade", Label: "Auto shading"},
		}},
	}
}

func demoTextureDoc() *toolstate.Document {
	return &toolstate.Document{
		LayoutRev:             "demo-textures-1",
		TextureBrushSize:      &toolstate.Numeric{Available: true, Scalar: scalar(1, 200, 1, 40, "N px")},
		TextureBrushOpacity:   &toolstate.Numeric{Available: true, Scalar: scalar(0, 100, 1, 80, "N%")},
		TextureBrushSmoothing: &toolstate.Numeric{Available: true, Scalar: scalar(0, 100, 1, 25, "N%")},
	}
}

// fyneRenderer realizes panel layouts into a floating Fyne window. It is only
// touched from the Fyne event loop, which is also where the engine's
// callbacks run, so no locking is needed.
type fyneRenderer struct {
	app fyne.App
	win fyne.Window

	title    string
	controls map[string]*fyneControl
	sections map[string]*uiSection
	scroll   *container.Scroll

	geom               panel.Geometry
	contentW, contentH float64
	shift, ctrl, alt   bool
	closed             bool
	closeFired         bool
	onClosed           []func()

	// OnSectionToggled fires when the user folds or unfolds a collapsible
	// section header. The engine has no section event of its own, so the
	// shell wires this to Controller.SetShortcutsCollapsed.
	OnSectionToggled func(id string, collapsed bool)
}

func newRenderer(a fyne.App) *fyneRenderer {
	r := &fyneRenderer{
		app:      a,
		controls: map[string]*fyneControl{},
		sections: map[string]*uiSection{},
	}
	r.win = a.NewWindow("")
	r.win.SetOnClosed(r.fireClosed)
	if dc, ok := r.win.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) { r.setModifier(e.Name, true) })
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) { r.setModifier(e.Name, false) })
	}
	return r
}

func (r *fyneRenderer) setModifier(k fyne.KeyName, down bool) {
	switch k {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		r.shift = down
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		r.ctrl = down
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		r.alt = down
	}
}

type uiSection struct {
	id        string
	collapsed bool
	body      *fyne.Container
	header    *widget.Button
}

func (r *fyneRenderer) Rebuild(l panel.Layout) {
	r.controls = map[string]*fyneControl{}
	r.sections = map[string]*uiSection{}
	r.title = l.Title
	r.win.SetTitle(l.Title)

	root := container.NewVBox()
	for _, sec := range l.Sections {
		s := &uiSection{id: sec.ID, collapsed: sec.Collapsed}
		s.body = container.NewVBox()
		for _, cs := range sec.Controls {
			c := r.realize(cs)
			s.body.Add(c.row)
			for _, sub := range cs.SubMarkers {
				subSpec := cs
				subSpec.Marker = sub
				r.realizeDisplay(subSpec)
			}
		}
		r.sections[sec.ID] = s

		if sec.Collapsible {
			sec := sec
			s.header = widget.NewButtonWithIcon(sec.Title, theme.MenuDropDownIcon(), func() {
				r.toggleSection(sec.ID)
			})
			s.header.Alignment = widget.ButtonAlignLeading
			root.Add(s.header)
			if s.collapsed {
				s.body.Hide()
			}
		} else if sec.Title != "" {
			root.Add(widget.NewLabelWithStyle(sec.Title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		}
		root.Add(s.body)
		root.Add(widget.NewSeparator())
	}

	r.scroll = container.NewVScroll(root)
	r.win.SetContent(r.scroll)
	if r.contentW > 0 && r.contentH > 0 {
		r.win.Resize(fyne.NewSize(float32(r.contentW), float32(r.contentH)))
	} else if r.geom.Width > 0 && r.geom.Height > 0 {
		r.win.Resize(fyne.NewSize(float32(r.geom.Width), float32(r.geom.Height)))
	}
}

func (r *fyneRenderer) toggleSection(id string) {
	s, ok := r.sections[id]
	if !ok {
		return
	}
	s.collapsed = !s.collapsed
	if s.collapsed {
		s.body.Hide()
	} else {
		s.body.Show()
	}
	if r.OnSectionToggled != nil {
		r.OnSectionToggled(id, s.collapsed)
	}
}

func (r *fyneRenderer) Control(marker string) panel.Control {
	c, ok := r.controls[marker]
	if !ok {
		return nil
	}
	return c
}

func (r *fyneRenderer) Bind(marker string, ev panel.Events) {
	if c, ok := r.controls[marker]; ok {
		c.ev = ev
	}
}

func (r *fyneRenderer) Unbind(marker string) {
	if c, ok := r.controls[marker]; ok {
		c.ev = panel.Events{}
	}
}

func (r *fyneRenderer) HasSection(id string) bool {
	_, ok := r.sections[id]
	return ok
}

func (r *fyneRenderer) SetSectionCollapsed(id string, collapsed bool) {
	s, ok := r.sections[id]
	if !ok || s.collapsed == collapsed {
		return
	}
	s.collapsed = collapsed
	if collapsed {
		s.body.Hide()
	} else {
		s.body.Show()
	}
}

func (r *fyneRenderer) SetTitle(title string) {
	r.title = title
	r.win.SetTitle(title)
}

func (r *fyneRenderer) Title() string { return r.title }

func (r *fyneRenderer) ScrollOffset() float64 {
	if r.scroll == nil {
		return 0
	}
	return float64(r.scroll.Offset.Y)
}

func (r *fyneRenderer) SetScrollOffset(off float64) {
	if r.scroll == nil {
		return
	}
	r.scroll.Offset = fyne.NewPos(0, float32(off))
	r.scroll.Refresh()
}

func (r *fyneRenderer) ContentSize() (w, h float64) {
	sz := r.win.Canvas().Size()
	return float64(sz.Width), float64(sz.Height)
}

func (r *fyneRenderer) SetContentSize(w, h float64) {
	r.contentW, r.contentH = w, h
	if w > 0 && h > 0 {
		r.win.Resize(fyne.NewSize(float32(w), float32(h)))
	}
}

// Geometry reports the tracked panel geometry. Fyne cannot position windows,
// so Left/Top survive as stored values only while Width/Height track the
// live canvas.
func (r *fyneRenderer) Geometry() panel.Geometry {
	g := r.geom
	sz := r.win.Canvas().Size()
	if sz.Width > 0 && sz.Height > 0 {
		g.Width, g.Height = float64(sz.Width), float64(sz.Height)
	}
	return g
}

func (r *fyneRenderer) SetGeometry(g panel.Geometry) {
	r.geom = g
	if g.Width > 0 && g.Height > 0 {
		r.win.Resize(fyne.NewSize(float32(g.Width), float32(g.Height)))
	}
}

func (r *fyneRenderer) Show() { r.win.Show() }

func (r *fyneRenderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.win.Close()
}

func (r *fyneRenderer) OnClosed(fn func()) { r.onClosed = append(r.onClosed, fn) }

func (r *fyneRenderer) fireClosed() {
	if r.closeFired {
		return
	}
	r.closeFired = true
	r.closed = true
	for _, fn := range r.onClosed {
		fn()
	}
}

// fyneControl backs every realized control kind; the typed panel interfaces
// expose different slices of it, mirroring the in-memory renderer.
type fyneControl struct {
	r      *fyneRenderer
	marker string
	kind   panel.Kind
	row    fyne.CanvasObject
	ev     panel.Events

	// muted suppresses widget callbacks during programmatic writes.
	muted    bool
	focused  bool
	disabled bool

	slider  *nudgeSlider
	entry   *valueEntry
	display *widget.Label
	check   *widget.Check
	sel     *widget.Select
	dial    *offsetDial
	img     *canvas.Image

	value           string
	min, max, step  float64
	optIDs, optLbls []string
	selectedID      string
	imgSig          string
}

func (r *fyneRenderer) realize(cs panel.ControlSpec) *fyneControl {
	c := &fyneControl{r: r, marker: cs.Marker, kind: cs.Kind}
	switch cs.Kind {
	case panel.KindNumeric:
		c.slider = newNudgeSlider(c)
		c.entry = newValueEntry(c)
		row := container.NewBorder(nil, nil, nil, c.entry, c.slider)
		if cs.Label != "" {
			c.row = container.NewVBox(widget.NewLabel(cs.Label), row)
		} else {
			c.row = row
		}
	case panel.KindToggle:
		c.check = widget.NewCheck(cs.Label, func(on bool) {
			if c.muted || c.ev.OnToggle == nil {
				return
			}
			c.ev.OnToggle(on)
		})
		c.row = c.check
	case panel.KindSelect:
		c.sel = widget.NewSelect(nil, func(label string) {
			if c.muted {
				return
			}
			// Track the user's pick before dispatching so Selected() reports
			// it; a rejected handler then sees the mismatch and reverts.
			c.selectedID = c.idForLabel(label)
			if c.ev.OnSelect != nil {
				c.ev.OnSelect(c.selectedID)
			}
		})
		if cs.Label != "" {
			c.row = container.NewBorder(nil, nil, widget.NewLabel(cs.Label), nil, c.sel)
		} else {
			c.row = c.sel
		}
	case panel.KindText:
		c.entry = newValueEntry(c)
		c.entry.SetPlaceHolder(cs.Label)
		c.row = c.entry
	case panel.KindDial:
		c.dial = newOffsetDial(c)
		c.row = c.dial
	case panel.KindPreview:
		c.img = canvas.NewImageFromResource(nil)
		c.img.FillMode = canvas.ImageFillContain
		c.img.SetMinSize(fyne.NewSize(96, 96))
		c.row = c.img
	case panel.KindButton:
		c.row = widget.NewButton(cs.Label, func() {
			if c.ev.OnClick != nil {
				c.ev.OnClick()
			}
		})
	default:
		c.row = widget.NewLabel(cs.Label)
	}
	r.controls[cs.Marker] = c
	return c
}

// realizeDisplay builds the read-only companion control behind a SubMarker,
// shown inline with its parent (the formatted value beside a slider).
func (r *fyneRenderer) realizeDisplay(cs panel.ControlSpec) *fyneControl {
	c := &fyneControl{r: r, marker: cs.Marker, kind: cs.Kind}
	c.display = widget.NewLabel("")
	c.row = c.display
	if parent, ok := r.controls[strings.TrimSuffix(cs.Marker, "-display")]; ok {
		if box, ok := parent.row.(*fyne.Container); ok {
			box.Add(c.display)
		}
	}
	r.controls[cs.Marker] = c
	return c
}

func (c *fyneControl) idForLabel(label string) string {
	for i, l := range c.optLbls {
		if l == label && i < len(c.optIDs) {
			return c.optIDs[i]
		}
	}
	return label
}

func (c *fyneControl) labelForID(id string) string {
	for i, o := range c.optIDs {
		if o == id && i < len(c.optLbls) {
			return c.optLbls[i]
		}
	}
	return id
}

func (c *fyneControl) Marker() string { return c.marker }
func (c *fyneControl) Kind() panel.Kind { return c.kind }

func (c *fyneControl) SetVisible(visible bool) {
	if visible == c.Visible() {
		return
	}
	if visible {
		c.row.Show()
	} else {
		c.row.Hide()
	}
}

func (c *fyneControl) Visible() bool { return c.row.Visible() }

func (c *fyneControl) SetDisabled(disabled bool) {
	if disabled == c.disabled {
		return
	}
	c.disabled = disabled
	c.eachDisableable(func(w fyne.Disableable) {
		if disabled {
			w.Disable()
		} else {
			w.Enable()
		}
	})
}

func (c *fyneControl) eachDisableable(fn func(fyne.Disableable)) {
	if c.slider != nil {
		fn(c.slider)
	}
	if c.entry != nil {
		fn(c.entry)
	}
	if c.check != nil {
		fn(c.check)
	}
	if c.sel != nil {
		fn(c.sel)
	}
}

func (c *fyneControl) Disabled() bool { return c.disabled }
func (c *fyneControl) Focused() bool  { return c.focused }

func (c *fyneControl) SetValue(v string) {
	if v == c.value {
		return
	}
	c.value = v
	c.muted = true
	defer func() { c.muted = false }()
	if c.display != nil {
		c.display.SetText(v)
		return
	}
	if c.entry != nil {
		c.entry.SetText(v)
	}
	if c.slider != nil {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.slider.SetValue(f)
		}
	}
}

func (c *fyneControl) Value() string { return c.value }

func (c *fyneControl) SetRange(min, max, step float64) {
	c.min, c.max, c.step = min, max, step
	if c.slider != nil {
		c.muted = true
		c.slider.Min, c.slider.Max, c.slider.Step = min, max, step
		c.slider.Refresh()
		c.muted = false
	}
}

func (c *fyneControl) Range() (min, max, step float64) { return c.min, c.max, c.step }

func (c *fyneControl) SetChecked(on bool) {
	if c.check == nil || c.check.Checked == on {
		return
	}
	c.muted = true
	c.check.SetChecked(on)
	c.muted = false
}

func (c *fyneControl) Checked() bool {
	if c.check == nil {
		return false
	}
	return c.check.Checked
}

func (c *fyneControl) SetOptions(ids, labels []string) {
	c.optIDs, c.optLbls = ids, labels
	if c.sel != nil {
		c.muted = true
		c.sel.Options = labels
		c.sel.Refresh()
		c.muted = false
	}
}

func (c *fyneControl) SetSelected(id string) {
	if id == c.selectedID {
		return
	}
	c.selectedID = id
	if c.sel != nil {
		c.muted = true
		c.sel.SetSelected(c.labelForID(id))
		c.muted = false
	}
}

func (c *fyneControl) Selected() string { return c.selectedID }

func (c *fyneControl) SetPolar(distance, angle, maxRadius float64) {
	if c.dial != nil {
		c.dial.setPolar(distance, angle, maxRadius)
	}
}

func (c *fyneControl) Polar() (distance, angle, maxRadius float64) {
	if c.dial == nil {
		return 0, 0, 0
	}
	return c.dial.dist, c.dial.angle, c.dial.maxR
}

func (c *fyneControl) SetImage(src, signature string, width, height int) {
	if c.img == nil || signature == c.imgSig {
		return
	}
	c.imgSig = signature
	if res := resourceFromDataURI(src, signature); res != nil {
		c.img.Resource = res
		if width > 0 && height > 0 {
			c.img.SetMinSize(fyne.NewSize(float32(width), float32(height)))
		}
		c.img.Refresh()
	}
}

func (c *fyneControl) Signature() string { return c.imgSig }

const pngDataPrefix = "data:image/png;base64,"

func resourceFromDataURI(src, name string) fyne.Resource {
	if !strings.HasPrefix(src, pngDataPrefix) {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(src, pngDataPrefix))
	if err != nil {
		return nil
	}
	return fyne.NewStaticResource(name+".png", raw)
}

var (
	_ panel.Renderer       = (*fyneRenderer)(nil)
	_ panel.RangeControl   = (*fyneControl)(nil)
	_ panel.ToggleControl  = (*fyneControl)(nil)
	_ panel.SelectControl  = (*fyneControl)(nil)
	_ panel.DialControl    = (*fyneControl)(nil)
	_ panel.PreviewControl = (*fyneControl)(nil)
)
