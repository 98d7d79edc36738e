/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tooloptions

import (
	"testing"

	"mapforge/internal/panel"
	"mapforge/internal/toolstate"
)

func TestNumericRoundTripAndHide(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")

	c.SetToolOptions("a", Options{State: &toolstate.Document{
		Opacity: &toolstate.Numeric{
			Available: true,
			Scalar:    toolstate.Scalar{Min: 0, Max: 100, Step: 1, Value: 42},
		},
	}})
	ctl := r.Control("opacity")
	if got := ctl.(panel.ValueControl).Value(); got != "42" {
		t.Fatalf("round-tripped value = %q", got)
	}

	// Turning the group unavailable hides it in place, no rebuild.
	builds := r.RebuildCount
	c.SetToolOptions("a", Options{State: &toolstate.Document{
		Opacity: &toolstate.Numeric{Available: false},
	}})
	if r.RebuildCount != builds {
		t.Fatal("available true->false must patch, not rebuild")
	}
	if ctl.Visible() {
		t.Fatal("unavailable group must be hidden")
	}
}

func TestGrowingShapeForcesRebuildShrinkingDoesNot(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{State: scaleDoc(50)})

	builds := r.RebuildCount
	// Adding an available group grows the shape.
	doc := scaleDoc(50)
	doc.FlipH = &toolstate.Toggle{Available: true, Enabled: true, Label: "Flip"}
	c.SetToolOptions("a", Options{State: doc})
	if r.RebuildCount != builds+1 {
		t.Fatalf("growth should rebuild, count %d -> %d", builds, r.RebuildCount)
	}
	if got := r.Control("flip-h"); got == nil || !got.(panel.ToggleControl).Checked() {
		t.Fatal("new toggle not realized")
	}

	// Dropping it back shrinks the shape: patch only.
	builds = r.RebuildCount
	c.SetToolOptions("a", Options{State: scaleDoc(50)})
	if r.RebuildCount != builds {
		t.Fatal("shrink should patch in place")
	}
	if r.Control("flip-h").Visible() {
		t.Fatal("shrunk group must be hidden in place")
	}
}

func TestLayoutRevisionChangeForcesRebuild(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	doc := scaleDoc(50)
	doc.LayoutRev = "r1"
	c.SetToolOptions("a", Options{State: doc})

	builds := r.RebuildCount
	doc2 := scaleDoc(50)
	doc2.LayoutRev = "r2"
	c.SetToolOptions("a", Options{State: doc2})
	if r.RebuildCount != builds+1 {
		t.Fatal("layout revision change must rebuild")
	}
}

func TestForceRenderAlwaysRebuilds(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{State: scaleDoc(50)})

	builds := r.RebuildCount
	c.SetToolOptions("a", Options{State: scaleDoc(50), ForceRender: true})
	if r.RebuildCount != builds+1 {
		t.Fatal("ForceRender must rebuild even with an identical document")
	}
}

func TestSyncDoesNotClobberFocusedControl(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{State: scaleDoc(50)})

	r.SetFocused("scale", true)
	r.Control("scale").(panel.ValueControl).SetValue("49") // user mid-edit
	c.SetToolOptions("a", Options{State: scaleDoc(50)})
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "49" {
		t.Fatalf("focused control was clobbered to %q", got)
	}

	r.SetFocused("scale", false)
	c.SetToolOptions("a", Options{State: scaleDoc(50)})
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "50" {
		t.Fatalf("unfocused control not re-synced, got %q", got)
	}
}

func TestRejectedAsyncHandlerRollsBack(t *testing.T) {
	c, r, _ := newTestController(nil)
	ch := make(chan bool, 1)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(100),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { return ch },
		},
	})

	if err := r.SimulateInput("scale", "150", true); err != nil {
		t.Fatal(err)
	}
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "150" {
		t.Fatalf("optimistic value = %q", got)
	}
	ch <- false
	eventually(t, func() bool {
		return r.Control("scale").(panel.ValueControl).Value() == "100"
	})
}

func TestSynchronousRejectionRollsBackImmediately(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(100),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { return false },
		},
	})

	if err := r.SimulateInput("scale", "150", true); err != nil {
		t.Fatal(err)
	}
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "100" {
		t.Fatalf("value after rejection = %q", got)
	}
}

func TestAcceptedHandlerShowsThePushedUpdate(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	handlers := HandlerTable{}
	handlers["setScale"] = func(args ...any) any {
		// The tool applies the change and pushes the updated document.
		c.SetToolOptions("a", Options{State: scaleDoc(150), Handlers: handlers})
		return true
	}
	c.SetToolOptions("a", Options{State: scaleDoc(100), Handlers: handlers})

	if err := r.SimulateInput("scale", "150", true); err != nil {
		t.Fatal(err)
	}
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "150" {
		t.Fatalf("value after accepted commit = %q", got)
	}
}

func TestStaleAsyncResolutionIsDropped(t *testing.T) {
	c, r, _ := newTestController(nil)
	ch1 := make(chan bool, 1)
	ch2 := make(chan bool, 1)
	results := []any{ch1, ch2}
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(100),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any {
				res := results[0]
				results = results[1:]
				return res
			},
		},
	})

	if err := r.SimulateInput("scale", "120", true); err != nil {
		t.Fatal(err)
	}
	if err := r.SimulateInput("scale", "150", true); err != nil {
		t.Fatal(err)
	}

	// The newer invocation settles first and syncs back to the document.
	ch2 <- false
	eventually(t, func() bool {
		return r.Control("scale").(panel.ValueControl).Value() == "100"
	})

	// Drift the control, then settle the stale invocation: it must not sync.
	r.Control("scale").(panel.ValueControl).SetValue("999")
	ch1 <- false
	if got := r.Control("scale").(panel.ValueControl).Value(); got != "999" {
		t.Fatalf("stale resolution synced the control, value = %q", got)
	}
}

func TestCtrlWheelNudgesByStep(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(100),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { got = args; return true },
		},
	})

	// Plain wheel scrolls the panel, never nudges.
	if err := r.SimulateWheel("scale", 1, false, false, false); err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("plain wheel invoked handler with %v", got)
	}

	if err := r.SimulateWheel("scale", 1, false, true, false); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "101" || got[1] != true {
		t.Fatalf("ctrl wheel args = %v", got)
	}

	if err := r.SimulateWheel("scale", -1, true, true, false); err != nil {
		t.Fatal(err)
	}
	if got[0] != "95" {
		t.Fatalf("shift wheel should step by 5, got %v", got[0])
	}
}

func TestFineWheelNudgesByTenthStep(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(100),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { got = args; return true },
		},
	})

	if err := r.SimulateWheel("scale", 1, false, true, true); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "100.1" || got[1] != true {
		t.Fatalf("fine wheel args = %v", got)
	}

	// The fine modifier still needs the ctrl gate.
	got = nil
	if err := r.SimulateWheel("scale", 1, false, false, true); err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("ungated fine wheel invoked handler with %v", got)
	}
}

func TestWheelClampsAtBounds(t *testing.T) {
	c, r, _ := newTestController(nil)
	var calls int
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(250), // at max
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { calls++; return true },
		},
	})
	if err := r.SimulateWheel("scale", 1, false, true, false); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatal("a nudge that cannot move must not invoke the handler")
	}
}

func TestRightClickResetsToDefault(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	def := 100.0
	c.ActivateTool("a", "Alpha")
	doc := scaleDoc(180)
	doc.Scale.DefaultValue = &def
	c.SetToolOptions("a", Options{
		State: doc,
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { got = args; return true },
		},
	})

	if err := r.SimulateReset("scale"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "100" || got[1] != true {
		t.Fatalf("reset args = %v", got)
	}
}

func TestResetWithoutDefaultIsIgnored(t *testing.T) {
	c, r, _ := newTestController(nil)
	var calls int
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: scaleDoc(180),
		Handlers: HandlerTable{
			"setScale": func(args ...any) any { calls++; return true },
		},
	})
	if err := r.SimulateReset("scale"); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatal("reset without a stamped default must be a no-op")
	}
}

func TestDecimalsFollowStep(t *testing.T) {
	cases := []struct {
		step float64
		want int
	}{
		{1, 0}, {5, 0}, {0.1, 1}, {0.25, 2}, {0.05, 2}, {0.001, 3},
	}
	for _, tc := range cases {
		if got := decimalsForStep(tc.step); got != tc.want {
			t.Fatalf("decimalsForStep(%v) = %d, want %d", tc.step, got, tc.want)
		}
	}
	if got := formatScalar(42.000000002, 1); got != "42" {
		t.Fatalf("formatScalar noise not trimmed: %q", got)
	}
	if got := formatScalar(1.26, 0.1); got != "1.3" {
		t.Fatalf("formatScalar rounding = %q", got)
	}
}

func TestScrollPreservedAcrossRebuildResetOnToolChange(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{State: scaleDoc(50)})

	r.SetScrollOffset(80)
	doc := scaleDoc(50)
	doc.FlipH = &toolstate.Toggle{Available: true} // grows shape -> rebuild
	c.SetToolOptions("a", Options{State: doc})
	if got := r.ScrollOffset(); got != 80 {
		t.Fatalf("same-tool rebuild lost scroll, offset = %v", got)
	}

	c.ActivateTool("b", "Beta")
	if got := r.ScrollOffset(); got != 0 {
		t.Fatalf("tool change should reset scroll, offset = %v", got)
	}
}

func TestContentSizePreservedAcrossRebuild(t *testing.T) {
	c, r, _ := newTestController(nil)
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{State: scaleDoc(50)})

	r.SetContentSize(280, 640)
	c.SetToolOptions("a", Options{State: scaleDoc(50), ForceRender: true})
	if w, h := r.ContentSize(); w != 280 || h != 640 {
		t.Fatalf("content size lost across rebuild: (%v,%v)", w, h)
	}
}

func TestPairGroupRoutesPerAxis(t *testing.T) {
	c, r, _ := newTestController(nil)
	var name string
	var got []any
	handler := func(n string) Handler {
		return func(args ...any) any { name, got = n, args; return true }
	}
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			Offset: &toolstate.AxisPair{
				Available:   true,
				FirstLabel:  "X",
				SecondLabel: "Y",
				First:       toolstate.Scalar{Min: -50, Max: 50, Step: 1, Value: 10},
				Second:      toolstate.Scalar{Min: -50, Max: 50, Step: 1, Value: -10},
			},
		},
		Handlers: HandlerTable{
			"setOffsetX": handler("setOffsetX"),
			"setOffsetY": handler("setOffsetY"),
		},
	})

	if got := r.Control("offset-first").(panel.ValueControl).Value(); got != "10" {
		t.Fatalf("first axis value = %q", got)
	}
	if got := r.Control("offset-second").(panel.ValueControl).Value(); got != "-10" {
		t.Fatalf("second axis value = %q", got)
	}

	if err := r.SimulateInput("offset-second", "5", true); err != nil {
		t.Fatal(err)
	}
	if name != "setOffsetY" || got[0] != "5" {
		t.Fatalf("second axis routed to %q with %v", name, got)
	}
}

func TestPresetSelectionInvokesHandler(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			PathShadowPreset: &toolstate.PresetBank{
				Available: true,
				Active:    "soft",
				Presets:   []toolstate.Preset{{ID: "soft", Label: "Soft"}, {ID: "hard", Label: "Hard"}},
			},
		},
		Handlers: HandlerTable{
			"setPathShadowPreset": func(args ...any) any { got = args; return true },
		},
	})

	if sel := r.Control("path-shadow-preset").(panel.SelectControl).Selected(); sel != "soft" {
		t.Fatalf("initial selection = %q", sel)
	}
	if err := r.SimulateSelect("path-shadow-preset", "hard"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "hard" {
		t.Fatalf("preset handler args = %v", got)
	}
}

func TestFixtureGroupSyncAndRouting(t *testing.T) {
	c, r, _ := newTestController(nil)
	var name string
	var got []any
	handler := func(n string) Handler {
		return func(args ...any) any { name, got = n, args; return true }
	}
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			DoorFixture: &toolstate.Fixture{
				Available: true,
				Width:     toolstate.Scalar{Min: 1, Max: 4, Step: 0.5, Value: 1.5},
				State: toolstate.SelectField{
					Label: "State", Value: "closed",
					Choices: []toolstate.Choice{{ID: "open", Label: "Open"}, {ID: "closed", Label: "Closed"}},
				},
				Variant: toolstate.SelectField{
					Label: "Variant", Value: "wood",
					Choices: []toolstate.Choice{{ID: "wood", Label: "Wood"}, {ID: "iron", Label: "Iron"}},
				},
			},
		},
		Handlers: HandlerTable{
			"setDoorWidth":   handler("setDoorWidth"),
			"setDoorState":   handler("setDoorState"),
			"setDoorVariant": handler("setDoorVariant"),
		},
	})

	if got := r.Control("door-fixture-width").(panel.ValueControl).Value(); got != "1.5" {
		t.Fatalf("width value = %q", got)
	}
	if sel := r.Control("door-fixture-state").(panel.SelectControl).Selected(); sel != "closed" {
		t.Fatalf("state selection = %q", sel)
	}
	if err := r.SimulateSelect("door-fixture-variant", "iron"); err != nil {
		t.Fatal(err)
	}
	if name != "setDoorVariant" || got[0] != "iron" {
		t.Fatalf("variant routed to %q with %v", name, got)
	}
}

func TestNamingSectionRoutesInputAndCounter(t *testing.T) {
	c, r, _ := newTestController(nil)
	var name string
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			PlaceAsName: &toolstate.Naming{Available: true, Name: "Door", CounterEnabled: true},
		},
		Handlers: HandlerTable{
			"setPlaceAsName":        func(args ...any) any { name, got = "setPlaceAsName", args; return true },
			"setPlaceAsNameCounter": func(args ...any) any { name, got = "setPlaceAsNameCounter", args; return true },
		},
	})

	if !r.HasSection(toolstate.GroupPlaceAsName) {
		t.Fatal("naming section not realized")
	}
	if got := r.Control("place-as-name-input").(panel.ValueControl).Value(); got != "Door" {
		t.Fatalf("name value = %q", got)
	}
	if err := r.SimulateInput("place-as-name-input", "Gate", true); err != nil {
		t.Fatal(err)
	}
	if name != "setPlaceAsName" || got[0] != "Gate" {
		t.Fatalf("naming routed to %q with %v", name, got)
	}
	if err := r.SimulateToggle("place-as-name-counter", false); err != nil {
		t.Fatal(err)
	}
	if name != "setPlaceAsNameCounter" || got[0] != false {
		t.Fatalf("counter routed to %q with %v", name, got)
	}
}

func TestDropShadowDialClampsAndCommits(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			DropShadow: &toolstate.DropShadow{Available: true, Enabled: true, MaxRadius: 40},
		},
		Handlers: HandlerTable{
			"setDropShadowOffset": func(args ...any) any { got = args; return true },
		},
	})

	// A drag past the rim clamps to the max radius.
	if err := r.SimulateDrag("drop-shadow-dial", 100, 0, false); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 40.0 || got[1] != 0.0 || got[2] != false {
		t.Fatalf("drag args = %v", got)
	}

	// Straight up in screen coordinates is 270 degrees after wrapping.
	if err := r.SimulateDrag("drop-shadow-dial", 0, -10, true); err != nil {
		t.Fatal(err)
	}
	if got[0] != 10.0 || got[1] != 270.0 || got[2] != true {
		t.Fatalf("commit drag args = %v", got)
	}
}

func TestDropShadowToggleUsesConventionalHandler(t *testing.T) {
	c, r, _ := newTestController(nil)
	var got []any
	c.ActivateTool("a", "Alpha")
	c.SetToolOptions("a", Options{
		State: &toolstate.Document{
			DropShadow: &toolstate.DropShadow{Available: true, Enabled: false},
		},
		Handlers: HandlerTable{
			HandlerSetDropShadowEnabled: func(args ...any) any { got = args; return true },
		},
	})
	if err := r.SimulateToggle("drop-shadow-enabled", true); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != true {
		t.Fatalf("drop shadow toggle args = %v", got)
	}
}

// flakyRenderer drops the naming section from the first N rebuilds,
// simulating a toolkit that lags behind the requested structure.
type flakyRenderer struct {
	*panel.MemoryRenderer
	dropNaming int
}

func (f *flakyRenderer) Rebuild(l panel.Layout) {
	hasNaming := false
	for _, s := range l.Sections {
		if s.ID == toolstate.GroupPlaceAsName {
			hasNaming = true
			break
		}
	}
	if f.dropNaming > 0 && hasNaming {
		f.dropNaming--
		kept := l.Sections[:0:0]
		for _, s := range l.Sections {
			if s.ID != toolstate.GroupPlaceAsName {
				kept = append(kept, s)
			}
		}
		l.Sections = kept
	}
	f.MemoryRenderer.Rebuild(l)
}

func TestMissingNamingSectionTriggersBoundedReRender(t *testing.T) {
	fr := &flakyRenderer{MemoryRenderer: panel.NewMemoryRenderer(), dropNaming: 1}
	c := NewController(Config{NewRenderer: func() panel.Renderer { return fr }})
	c.ActivateTool("a", "Alpha")

	builds := fr.RebuildCount
	c.SetToolOptions("a", Options{State: &toolstate.Document{
		PlaceAsName: &toolstate.Naming{Available: true, Name: "Door"},
	}})
	if fr.RebuildCount != builds+2 {
		t.Fatalf("expected one re-render after the dropped section, builds %d -> %d", builds, fr.RebuildCount)
	}
	if !fr.HasSection(toolstate.GroupPlaceAsName) {
		t.Fatal("naming section should exist after the retry")
	}
}

func TestMissingNamingSectionGivesUpAfterTwoRetries(t *testing.T) {
	fr := &flakyRenderer{MemoryRenderer: panel.NewMemoryRenderer(), dropNaming: 10}
	c := NewController(Config{NewRenderer: func() panel.Renderer { return fr }})
	c.ActivateTool("a", "Alpha")

	builds := fr.RebuildCount
	c.SetToolOptions("a", Options{State: &toolstate.Document{
		PlaceAsName: &toolstate.Naming{Available: true, Name: "Door"},
	}})
	// Initial rebuild plus at most two retries.
	if fr.RebuildCount != builds+3 {
		t.Fatalf("expected exactly two retries, builds %d -> %d", builds, fr.RebuildCount)
	}
}
