/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hud injects the contextual edit buttons into a canvas object's
// heads-up display. It is thin glue: a hook listener that reads the object's
// flags, picks the matching editor mode, and hands clicks off to the editor
// opener. The state-sync engine itself lives in tooloptions.
package hud

import (
	"log/slog"

	"mapforge/internal/flags"
	"mapforge/internal/hooks"
	applog "mapforge/internal/log"
	"mapforge/internal/transform"
)

// HookObjectHUD is the host hook fired after an object's HUD is rendered.
// Payload: (*Object, Surface).
const HookObjectHUD = "renderObjectHUD"

// Object is the canvas object behind a rendered HUD.
type Object struct {
	ID        string
	Doc       flags.Source
	X, Y      float64 // world position
	MultiTile bool
}

// Button is one injected HUD button.
type Button struct {
	ID      string
	Label   string
	Tooltip string
	OnClick func()
}

// Surface is the HUD region buttons are injected into.
type Surface interface {
	AddButton(b Button)
}

// Editor opens the content editor and performs the multi-tile operations.
type Editor interface {
	OpenEditor(objectID string, mode flags.Mode)
	Flatten(objectID string)
	Deconstruct(objectID string)
}

// Manager listens for HUD renders and injects the mode-appropriate buttons.
type Manager struct {
	log    *slog.Logger
	editor Editor
	view   transform.Viewport
	off    func()
}

// NewManager subscribes to the object-HUD hook on the given bus.
func NewManager(bus *hooks.Bus, editor Editor) *Manager {
	m := &Manager{
		log:    applog.WithComponent("hud"),
		editor: editor,
	}
	m.off = bus.On(HookObjectHUD, m.handle)
	return m
}

// SetViewport updates the world-to-screen mapping used for popover placement.
func (m *Manager) SetViewport(v transform.Viewport) { m.view = v }

// PopoverPosition returns the clamped screen position for an editor popover
// of size (w, h) anchored at the object.
func (m *Manager) PopoverPosition(obj *Object, w, h, screenW, screenH float64) (float64, float64) {
	sx, sy := m.view.WorldToScreen(obj.X, obj.Y)
	return transform.ClampToScreen(sx, sy, w, h, screenW, screenH)
}

// Close detaches the hook listener.
func (m *Manager) Close() {
	if m.off != nil {
		m.off()
		m.off = nil
	}
}

func (m *Manager) handle(args ...any) {
	if len(args) < 2 {
		return
	}
	obj, ok := args[0].(*Object)
	if !ok || obj == nil {
		return
	}
	surface, ok := args[1].(Surface)
	if !ok {
		return
	}

	if mode := flags.EditMode(obj.Doc); mode != flags.ModeNone {
		mode := mode
		id := obj.ID
		surface.AddButton(Button{
			ID:      "edit-" + mode.String(),
			Label:   "Edit " + mode.String(),
			Tooltip: "Open the " + mode.String() + " editor",
			OnClick: func() { m.editor.OpenEditor(id, mode) },
		})
	}

	// Flatten/deconstruct apply to multi-tile selections regardless of mode.
	if obj.MultiTile {
		id := obj.ID
		surface.AddButton(Button{
			ID:      "flatten",
			Label:   "Flatten",
			Tooltip: "Merge the selected tiles into one",
			OnClick: func() { m.editor.Flatten(id) },
		})
		surface.AddButton(Button{
			ID:      "deconstruct",
			Label:   "Deconstruct",
			Tooltip: "Split the selection back into tiles",
			OnClick: func() { m.editor.Deconstruct(id) },
		})
	}
}
