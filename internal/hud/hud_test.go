/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hud

import (
	"testing"

	"mapforge/internal/flags"
	"mapforge/internal/hooks"
	"mapforge/internal/transform"
)

type fakeSurface struct {
	buttons []Button
}

func (s *fakeSurface) AddButton(b Button) { s.buttons = append(s.buttons, b) }

func (s *fakeSurface) byID(id string) *Button {
	for i := range s.buttons {
		if s.buttons[i].ID == id {
			return &s.buttons[i]
		}
	}
	return nil
}

type fakeEditor struct {
	opened       string
	openedMode   flags.Mode
	flattened    string
	deconstructd string
}

func (e *fakeEditor) OpenEditor(id string, mode flags.Mode) { e.opened, e.openedMode = id, mode }
func (e *fakeEditor) Flatten(id string)                     { e.flattened = id }
func (e *fakeEditor) Deconstruct(id string)                 { e.deconstructd = id }

func pathObject(id string) *Object {
	return &Object{
		ID:  id,
		Doc: flags.Map{flags.Namespace: {"isPath": true}},
	}
}

func TestHUDRenderInjectsModeButton(t *testing.T) {
	bus := hooks.NewBus()
	ed := &fakeEditor{}
	m := NewManager(bus, ed)
	defer m.Close()

	s := &fakeSurface{}
	bus.CallAll(HookObjectHUD, pathObject("obj-1"), Surface(s))

	b := s.byID("edit-paths")
	if b == nil {
		t.Fatalf("edit button missing, got %d buttons", len(s.buttons))
	}
	b.OnClick()
	if ed.opened != "obj-1" || ed.openedMode != flags.ModePaths {
		t.Fatalf("editor opened with (%q, %v)", ed.opened, ed.openedMode)
	}
}

func TestHUDNoButtonsForUnflaggedObject(t *testing.T) {
	bus := hooks.NewBus()
	m := NewManager(bus, &fakeEditor{})
	defer m.Close()

	s := &fakeSurface{}
	bus.CallAll(HookObjectHUD, &Object{ID: "x", Doc: flags.Map{}}, Surface(s))
	if len(s.buttons) != 0 {
		t.Fatalf("expected no buttons, got %d", len(s.buttons))
	}
}

func TestMultiTileGetsFlattenAndDeconstruct(t *testing.T) {
	bus := hooks.NewBus()
	ed := &fakeEditor{}
	m := NewManager(bus, ed)
	defer m.Close()

	obj := pathObject("sel-1")
	obj.MultiTile = true
	s := &fakeSurface{}
	bus.CallAll(HookObjectHUD, obj, Surface(s))

	if s.byID("flatten") == nil || s.byID("deconstruct") == nil {
		t.Fatal("multi-tile buttons missing")
	}
	s.byID("flatten").OnClick()
	s.byID("deconstruct").OnClick()
	if ed.flattened != "sel-1" || ed.deconstructd != "sel-1" {
		t.Fatalf("multi-tile ops got (%q, %q)", ed.flattened, ed.deconstructd)
	}
}

func TestCloseDetachesListener(t *testing.T) {
	bus := hooks.NewBus()
	m := NewManager(bus, &fakeEditor{})
	m.Close()
	m.Close() // idempotent

	s := &fakeSurface{}
	bus.CallAll(HookObjectHUD, pathObject("obj"), Surface(s))
	if len(s.buttons) != 0 {
		t.Fatal("detached manager still injected buttons")
	}
}

func TestPopoverPositionClampsToScreen(t *testing.T) {
	bus := hooks.NewBus()
	m := NewManager(bus, &fakeEditor{})
	defer m.Close()
	m.SetViewport(transform.Viewport{OriginX: 0, OriginY: 0, Scale: 1})

	obj := pathObject("obj")
	obj.X, obj.Y = 990, 10
	x, y := m.PopoverPosition(obj, 100, 50, 1000, 800)
	if x != 900 || y != 10 {
		t.Fatalf("popover at (%v,%v)", x, y)
	}
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	bus := hooks.NewBus()
	m := NewManager(bus, &fakeEditor{})
	defer m.Close()

	bus.CallAll(HookObjectHUD, "not-an-object")
	bus.CallAll(HookObjectHUD, nil, nil)
}
