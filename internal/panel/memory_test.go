/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package panel

import "testing"

func sampleLayout() Layout {
	return Layout{
		Title: "Brush Options",
		Sections: []Section{
			{
				ID:    "main",
				Title: "Brush",
				Controls: []ControlSpec{
					{Marker: "size", Kind: KindNumeric, Label: "Size", SubMarkers: []string{"size-entry"}},
					{Marker: "smooth", Kind: KindToggle, Label: "Smoothing"},
				},
			},
			{
				ID:          "extras",
				Title:       "Extras",
				Collapsible: true,
				Collapsed:   true,
				Controls: []ControlSpec{
					{Marker: "preset", Kind: KindSelect, Label: "Preset"},
				},
			},
		},
	}
}

func TestRebuildRealizesControlsAndSections(t *testing.T) {
	r := NewMemoryRenderer()
	r.Rebuild(sampleLayout())

	if r.RebuildCount != 1 {
		t.Fatalf("RebuildCount = %d", r.RebuildCount)
	}
	if r.Title() != "Brush Options" {
		t.Fatalf("title = %q", r.Title())
	}
	for _, marker := range []string{"size", "size-entry", "smooth", "preset"} {
		if r.Control(marker) == nil {
			t.Fatalf("control %q not realized", marker)
		}
	}
	if r.Control("missing") != nil {
		t.Fatal("unknown marker should return nil")
	}
	if !r.HasSection("extras") || !r.SectionCollapsed("extras") {
		t.Fatal("collapsed section lost")
	}
}

func TestRebuildInvalidatesBindings(t *testing.T) {
	r := NewMemoryRenderer()
	r.Rebuild(sampleLayout())
	r.Bind("size", Events{OnInput: func(string, bool) {}})
	if !r.Bound("size") {
		t.Fatal("binding not recorded")
	}
	r.Rebuild(sampleLayout())
	if r.Bound("size") {
		t.Fatal("rebuild must drop stale bindings")
	}
}

func TestSimulateGesturesReachCallbacks(t *testing.T) {
	r := NewMemoryRenderer()
	r.Rebuild(sampleLayout())

	var gotValue string
	var gotCommit, gotToggle bool
	var wheelDelta int
	r.Bind("size", Events{
		OnInput: func(v string, commit bool) { gotValue, gotCommit = v, commit },
		OnWheel: func(d int, shift, ctrl, fine bool) { wheelDelta = d },
	})
	r.Bind("smooth", Events{OnToggle: func(on bool) { gotToggle = on }})

	if err := r.SimulateInput("size", "42", true); err != nil {
		t.Fatal(err)
	}
	if gotValue != "42" || !gotCommit {
		t.Fatalf("input callback got (%q, %v)", gotValue, gotCommit)
	}
	if err := r.SimulateWheel("size", -1, false, false, false); err != nil {
		t.Fatal(err)
	}
	if wheelDelta != -1 {
		t.Fatalf("wheel delta = %d", wheelDelta)
	}
	if err := r.SimulateToggle("smooth", true); err != nil {
		t.Fatal(err)
	}
	if !gotToggle {
		t.Fatal("toggle callback not reached")
	}
	if err := r.SimulateClick("size"); err == nil {
		t.Fatal("gesture without a matching callback should error")
	}
}

func TestDropWritesSimulatesUnrealizedWidgets(t *testing.T) {
	r := NewMemoryRenderer()
	r.Rebuild(sampleLayout())
	c := r.Control("size").(ValueControl)

	r.DropWrites = 1
	c.SetValue("10")
	if c.Value() == "10" {
		t.Fatal("first write should have been dropped")
	}
	c.SetValue("10")
	if c.Value() != "10" {
		t.Fatal("second write should land")
	}
}

func TestCloseFiresOnClosedOnce(t *testing.T) {
	r := NewMemoryRenderer()
	var fired int
	r.OnClosed(func() { fired++ })
	r.Show()
	if !r.Shown() {
		t.Fatal("Show should mark the panel visible")
	}
	r.Close()
	r.Close()
	if fired != 1 {
		t.Fatalf("OnClosed fired %d times", fired)
	}
	if r.Shown() {
		t.Fatal("Close should hide the panel")
	}
}

func TestScrollAndGeometryRoundTrip(t *testing.T) {
	r := NewMemoryRenderer()
	r.SetScrollOffset(120)
	if r.ScrollOffset() != 120 {
		t.Fatalf("scroll offset = %v", r.ScrollOffset())
	}
	g := Geometry{Left: 10, Top: 20, Width: 320, Height: 480}
	r.SetGeometry(g)
	if r.Geometry() != g {
		t.Fatalf("geometry = %+v", r.Geometry())
	}
	r.SetContentSize(300, 900)
	if w, h := r.ContentSize(); w != 300 || h != 900 {
		t.Fatalf("content size = (%v,%v)", w, h)
	}
}
