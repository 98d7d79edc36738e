/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package toolstate defines the declarative options document a tool pushes at
// the panel: one optional, typed sub-document per control group. A nil group
// is absent from the layout; a group with Available=false is rendered hidden
// and must never be read for values. Documents are replaced wholesale on every
// push; diffing happens on the consuming side.
package toolstate

import (
	"time"
)

// Scalar carries the value and bounds of a single numeric control.
type Scalar struct {
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	Step         float64  `json:"step"`
	Value        float64  `json:"value"`
	Display      string   `json:"display,omitempty"`
	DefaultValue *float64 `json:"defaultValue,omitempty"`
}

// Numeric is a slider-with-entry control group.
type Numeric struct {
	Available bool `json:"available"`
	Disabled  bool `json:"disabled,omitempty"`
	Scalar
}

// Toggle is a single checkbox control group.
type Toggle struct {
	Available bool   `json:"available"`
	Disabled  bool   `json:"disabled,omitempty"`
	Enabled   bool   `json:"enabled"`
	Label     string `json:"label,omitempty"`
	Tooltip   string `json:"tooltip,omitempty"`
}

// AxisPair is a two-scalar group: offset X/Y, feather start/end, range min/max.
type AxisPair struct {
	Available   bool   `json:"available"`
	Disabled    bool   `json:"disabled,omitempty"`
	FirstLabel  string `json:"firstLabel,omitempty"`
	SecondLabel string `json:"secondLabel,omitempty"`
	First       Scalar `json:"first"`
	Second      Scalar `json:"second"`
}

// Preset is one selectable entry of a preset bank.
type Preset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PresetBank is a one-of-N chooser (e.g. path shadow presets).
type PresetBank struct {
	Available bool     `json:"available"`
	Disabled  bool     `json:"disabled,omitempty"`
	Active    string   `json:"active,omitempty"`
	Presets   []Preset `json:"presets,omitempty"`
}

// Choice is one entry of a select field.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SelectField is a labelled one-of-N dropdown inside a composite group.
type SelectField struct {
	Label   string   `json:"label,omitempty"`
	Value   string   `json:"value,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// Fixture describes a door or window fixture: width plus two select fields.
type Fixture struct {
	Available bool        `json:"available"`
	Disabled  bool        `json:"disabled,omitempty"`
	Width     Scalar      `json:"width"`
	State     SelectField `json:"state"`
	Variant   SelectField `json:"variant"`
}

// Naming is the optional "place as" naming section.
type Naming struct {
	Available      bool   `json:"available"`
	Name           string `json:"name,omitempty"`
	Placeholder    string `json:"placeholder,omitempty"`
	CounterEnabled bool   `json:"counterEnabled,omitempty"`
}

// Polar is a (distance, angle-in-degrees) offset.
type Polar struct {
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// PreviewImage identifies the rendered drop-shadow preview thumbnail.
// Signature changes whenever the underlying pixels change.
type PreviewImage struct {
	Src       string    `json:"src"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Signature string    `json:"signature,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	Alt       string    `json:"alt,omitempty"`
}

// DropShadow is the drop-shadow group: enable toggle, polar offset dial
// clamped to MaxRadius, and an optional preview thumbnail.
type DropShadow struct {
	Available bool          `json:"available"`
	Disabled  bool          `json:"disabled,omitempty"`
	Enabled   bool          `json:"enabled"`
	Offset    Polar         `json:"offset"`
	MaxRadius float64       `json:"maxRadius,omitempty"`
	Preview   *PreviewImage `json:"preview,omitempty"`
}

// ToggleItem is one entry of a tool's custom toggle set.
type ToggleItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Tooltip  string `json:"tooltip,omitempty"`
	Enabled  bool   `json:"enabled"`
	Disabled bool   `json:"disabled,omitempty"`
}

// ToggleSet is the per-tool custom toggle list.
type ToggleSet struct {
	Available bool         `json:"available"`
	Items     []ToggleItem `json:"items,omitempty"`
}

// Document is the full options-state document for one tool. LayoutRev is an
// opaque marker: when it changes between pushes the panel must rebuild rather
// than patch, because the set of visible groups changed shape.
type Document struct {
	LayoutRev string `json:"layoutRev,omitempty"`

	Opacity  *Numeric `json:"opacity,omitempty"`
	Scale    *Numeric `json:"scale,omitempty"`
	Rotation *Numeric `json:"rotation,omitempty"`

	TextureBrushSize      *Numeric `json:"textureBrushSize,omitempty"`
	TextureBrushOpacity   *Numeric `json:"textureBrushOpacity,omitempty"`
	TextureBrushSmoothing *Numeric `json:"textureBrushSmoothing,omitempty"`

	ScatterDensity *Numeric `json:"scatterDensity,omitempty"`
	ScatterJitter  *Numeric `json:"scatterJitter,omitempty"`

	HeightBrush *Numeric `json:"heightBrush,omitempty"`

	PathShadowScale   *Numeric    `json:"pathShadowScale,omitempty"`
	PathShadowOpacity *Numeric    `json:"pathShadowOpacity,omitempty"`
	PathShadowPreset  *PresetBank `json:"pathShadowPreset,omitempty"`

	Elevation  *Numeric `json:"elevation,omitempty"`
	SortHeight *Numeric `json:"sortHeight,omitempty"`

	FlipH             *Toggle `json:"flipH,omitempty"`
	FlipV             *Toggle `json:"flipV,omitempty"`
	LockRotation      *Toggle `json:"lockRotation,omitempty"`
	RandomizeRotation *Toggle `json:"randomizeRotation,omitempty"`

	Offset         *AxisPair `json:"offset,omitempty"`
	PathFeather    *AxisPair `json:"pathFeather,omitempty"`
	OpacityFeather *AxisPair `json:"opacityFeather,omitempty"`
	HeightMapRange *AxisPair `json:"heightMapRange,omitempty"`

	DoorFixture   *Fixture `json:"doorFixture,omitempty"`
	WindowFixture *Fixture `json:"windowFixture,omitempty"`

	PlaceAsName *Naming `json:"placeAsName,omitempty"`

	DropShadow *DropShadow `json:"dropShadow,omitempty"`

	CustomToggles *ToggleSet `json:"customToggles,omitempty"`
}

// Normalize clamps every numeric value into its bounds and fills structural
// defaults, so downstream code can trust the shape without re-checking. It is
// applied once at the document boundary.
func (d *Document) Normalize() {
	if d == nil {
		return
	}
	for _, n := range d.numerics() {
		if n != nil {
			normalizeScalar(&n.Scalar)
		}
	}
	for _, p := range []*AxisPair{d.Offset, d.PathFeather, d.OpacityFeather, d.HeightMapRange} {
		if p != nil {
			normalizeScalar(&p.First)
			normalizeScalar(&p.Second)
		}
	}
	if d.DoorFixture != nil {
		normalizeScalar(&d.DoorFixture.Width)
	}
	if d.WindowFixture != nil {
		normalizeScalar(&d.WindowFixture.Width)
	}
	if ds := d.DropShadow; ds != nil {
		if ds.MaxRadius <= 0 {
			ds.MaxRadius = 64
		}
		if ds.Offset.Distance < 0 {
			ds.Offset.Distance = 0
		}
		if ds.Offset.Distance > ds.MaxRadius {
			ds.Offset.Distance = ds.MaxRadius
		}
		ds.Offset.Angle = normalizeAngle(ds.Offset.Angle)
	}
	if pb := d.PathShadowPreset; pb != nil && pb.Active == "" && len(pb.Presets) > 0 {
		pb.Active = pb.Presets[0].ID
	}
}

func (d *Document) numerics() []*Numeric {
	return []*Numeric{
		d.Opacity, d.Scale, d.Rotation,
		d.TextureBrushSize, d.TextureBrushOpacity, d.TextureBrushSmoothing,
		d.ScatterDensity, d.ScatterJitter,
		d.HeightBrush,
		d.PathShadowScale, d.PathShadowOpacity,
		d.Elevation, d.SortHeight,
	}
}

func normalizeScalar(s *Scalar) {
	if s.Max < s.Min {
		s.Min, s.Max = s.Max, s.Min
	}
	if s.Step <= 0 {
		s.Step = 1
	}
	if s.Value < s.Min {
		s.Value = s.Min
	}
	if s.Value > s.Max {
		s.Value = s.Max
	}
	if s.DefaultValue != nil {
		dv := *s.DefaultValue
		if dv < s.Min {
			dv = s.Min
		}
		if dv > s.Max {
			dv = s.Max
		}
		s.DefaultValue = &dv
	}
}

func normalizeAngle(a float64) float64 {
	for a < 0 {
		a += 360
	}
	for a >= 360 {
		a -= 360
	}
	return a
}
