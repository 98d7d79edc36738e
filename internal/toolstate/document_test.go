/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package toolstate

import "testing"

func f(v float64) *float64 { return &v }

func TestNormalizeClampsScalarIntoBounds(t *testing.T) {
	d := &Document{
		Opacity: &Numeric{Available: true, Scalar: Scalar{Min: 0, Max: 100, Step: 5, Value: 120}},
		Scale:   &Numeric{Available: true, Scalar: Scalar{Min: 10, Max: 400, Step: 1, Value: 3}},
	}
	d.Normalize()
	if d.Opacity.Value != 100 {
		t.Fatalf("value above max should clamp to max, got %v", d.Opacity.Value)
	}
	if d.Scale.Value != 10 {
		t.Fatalf("value below min should clamp to min, got %v", d.Scale.Value)
	}
}

func TestNormalizeRepairsSwappedBoundsAndZeroStep(t *testing.T) {
	d := &Document{
		Rotation: &Numeric{Available: true, Scalar: Scalar{Min: 360, Max: 0, Step: 0, Value: 90}},
	}
	d.Normalize()
	r := d.Rotation
	if r.Min != 0 || r.Max != 360 {
		t.Fatalf("swapped bounds not repaired: min=%v max=%v", r.Min, r.Max)
	}
	if r.Step != 1 {
		t.Fatalf("non-positive step should default to 1, got %v", r.Step)
	}
	if r.Value != 90 {
		t.Fatalf("in-bounds value should be untouched, got %v", r.Value)
	}
}

func TestNormalizeClampsDefaultValue(t *testing.T) {
	d := &Document{
		Elevation: &Numeric{Available: true, Scalar: Scalar{Min: -10, Max: 10, Step: 1, Value: 0, DefaultValue: f(25)}},
	}
	d.Normalize()
	if got := *d.Elevation.DefaultValue; got != 10 {
		t.Fatalf("default value should clamp to max, got %v", got)
	}
}

func TestNormalizeAxisPairScalars(t *testing.T) {
	d := &Document{
		Offset: &AxisPair{
			Available: true,
			First:     Scalar{Min: -50, Max: 50, Step: 1, Value: 200},
			Second:    Scalar{Min: -50, Max: 50, Step: 0, Value: -200},
		},
	}
	d.Normalize()
	if d.Offset.First.Value != 50 || d.Offset.Second.Value != -50 {
		t.Fatalf("pair scalars not clamped: %v / %v", d.Offset.First.Value, d.Offset.Second.Value)
	}
	if d.Offset.Second.Step != 1 {
		t.Fatalf("pair step default missing, got %v", d.Offset.Second.Step)
	}
}

func TestNormalizeDropShadow(t *testing.T) {
	d := &Document{
		DropShadow: &DropShadow{
			Available: true,
			Enabled:   true,
			Offset:    Polar{Distance: 500, Angle: -90},
		},
	}
	d.Normalize()
	ds := d.DropShadow
	if ds.MaxRadius != 64 {
		t.Fatalf("missing max radius should default to 64, got %v", ds.MaxRadius)
	}
	if ds.Offset.Distance != 64 {
		t.Fatalf("distance should clamp to max radius, got %v", ds.Offset.Distance)
	}
	if ds.Offset.Angle != 270 {
		t.Fatalf("angle should wrap to [0,360), got %v", ds.Offset.Angle)
	}
}

func TestNormalizePresetBankDefaultsActive(t *testing.T) {
	d := &Document{
		PathShadowPreset: &PresetBank{
			Available: true,
			Presets:   []Preset{{ID: "soft", Label: "Soft"}, {ID: "hard", Label: "Hard"}},
		},
	}
	d.Normalize()
	if d.PathShadowPreset.Active != "soft" {
		t.Fatalf("empty active should default to first preset, got %q", d.PathShadowPreset.Active)
	}
}

func TestNormalizeNilDocumentIsSafe(t *testing.T) {
	var d *Document
	d.Normalize()
}

func TestParseValidDocument(t *testing.T) {
	raw := []byte(`{
		"layoutRev": "select/object",
		"opacity": {"available": true, "min": 0, "max": 100, "step": 1, "value": 150},
		"flipH": {"available": true, "enabled": true, "label": "Flip horizontal"},
		"dropShadow": {"available": true, "enabled": false, "offset": {"distance": 12, "angle": 45}}
	}`)
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.LayoutRev != "select/object" {
		t.Fatalf("layoutRev = %q", d.LayoutRev)
	}
	if d.Opacity == nil || d.Opacity.Value != 100 {
		t.Fatalf("opacity should be parsed and clamped, got %+v", d.Opacity)
	}
	if d.FlipH == nil || !d.FlipH.Enabled {
		t.Fatalf("flipH lost: %+v", d.FlipH)
	}
	if d.DropShadow == nil || d.DropShadow.MaxRadius != 64 {
		t.Fatalf("dropShadow not normalized: %+v", d.DropShadow)
	}
}

func TestParseRejectsWrongTypes(t *testing.T) {
	raw := []byte(`{"opacity": {"available": "yes", "value": "high"}}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected schema violation for non-boolean available")
	}
}

func TestParseRejectsGroupWithoutAvailable(t *testing.T) {
	raw := []byte(`{"scale": {"min": 0, "max": 10}}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected schema violation for missing available")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"opacity": `)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
