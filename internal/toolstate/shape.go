/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package toolstate

// Group identifiers. These double as the stable DOM markers the panel
// renderer stamps on each group's root, so state paths and rendered controls
// stay in one-to-one correspondence.
const (
	GroupOpacity               = "opacity"
	GroupScale                 = "scale"
	GroupRotation              = "rotation"
	GroupTextureBrushSize      = "texture-brush-size"
	GroupTextureBrushOpacity   = "texture-brush-opacity"
	GroupTextureBrushSmoothing = "texture-brush-smoothing"
	GroupScatterDensity        = "scatter-density"
	GroupScatterJitter         = "scatter-jitter"
	GroupHeightBrush           = "height-brush"
	GroupPathShadowScale       = "path-shadow-scale"
	GroupPathShadowOpacity     = "path-shadow-opacity"
	GroupPathShadowPreset      = "path-shadow-preset"
	GroupElevation             = "elevation"
	GroupSortHeight            = "sort-height"
	GroupFlipH                 = "flip-h"
	GroupFlipV                 = "flip-v"
	GroupLockRotation          = "lock-rotation"
	GroupRandomizeRotation     = "randomize-rotation"
	GroupOffset                = "offset"
	GroupPathFeather           = "path-feather"
	GroupOpacityFeather        = "opacity-feather"
	GroupHeightMapRange        = "height-map-range"
	GroupDoorFixture           = "door-fixture"
	GroupWindowFixture         = "window-fixture"
	GroupPlaceAsName           = "place-as-name"
	GroupDropShadow            = "drop-shadow"
	GroupCustomToggles         = "custom-toggles"
)

// groupProbe reports presence and availability of one group in a document.
type groupProbe struct {
	id    string
	probe func(*Document) (present, available bool)
}

// groupProbes is the single source of truth for which groups exist. The
// panel's group registrations and the shape diff both derive from it, so
// adding a group here is the only bookkeeping a new group needs.
var groupProbes = []groupProbe{
	{GroupOpacity, func(d *Document) (bool, bool) { return numericProbe(d.Opacity) }},
	{GroupScale, func(d *Document) (bool, bool) { return numericProbe(d.Scale) }},
	{GroupRotation, func(d *Document) (bool, bool) { return numericProbe(d.Rotation) }},
	{GroupTextureBrushSize, func(d *Document) (bool, bool) { return numericProbe(d.TextureBrushSize) }},
	{GroupTextureBrushOpacity, func(d *Document) (bool, bool) { return numericProbe(d.TextureBrushOpacity) }},
	{GroupTextureBrushSmoothing, func(d *Document) (bool, bool) { return numericProbe(d.TextureBrushSmoothing) }},
	{GroupScatterDensity, func(d *Document) (bool, bool) { return numericProbe(d.ScatterDensity) }},
	{GroupScatterJitter, func(d *Document) (bool, bool) { return numericProbe(d.ScatterJitter) }},
	{GroupHeightBrush, func(d *Document) (bool, bool) { return numericProbe(d.HeightBrush) }},
	{GroupPathShadowScale, func(d *Document) (bool, bool) { return numericProbe(d.PathShadowScale) }},
	{GroupPathShadowOpacity, func(d *Document) (bool, bool) { return numericProbe(d.PathShadowOpacity) }},
	{GroupPathShadowPreset, func(d *Document) (bool, bool) {
		if d.PathShadowPreset == nil {
			return false, false
		}
		return true, d.PathShadowPreset.Available
	}},
	{GroupElevation, func(d *Document) (bool, bool) { return numericProbe(d.Elevation) }},
	{GroupSortHeight, func(d *Document) (bool, bool) { return numericProbe(d.SortHeight) }},
	{GroupFlipH, func(d *Document) (bool, bool) { return toggleProbe(d.FlipH) }},
	{GroupFlipV, func(d *Document) (bool, bool) { return toggleProbe(d.FlipV) }},
	{GroupLockRotation, func(d *Document) (bool, bool) { return toggleProbe(d.LockRotation) }},
	{GroupRandomizeRotation, func(d *Document) (bool, bool) { return toggleProbe(d.RandomizeRotation) }},
	{GroupOffset, func(d *Document) (bool, bool) { return pairProbe(d.Offset) }},
	{GroupPathFeather, func(d *Document) (bool, bool) { return pairProbe(d.PathFeather) }},
	{GroupOpacityFeather, func(d *Document) (bool, bool) { return pairProbe(d.OpacityFeather) }},
	{GroupHeightMapRange, func(d *Document) (bool, bool) { return pairProbe(d.HeightMapRange) }},
	{GroupDoorFixture, func(d *Document) (bool, bool) { return fixtureProbe(d.DoorFixture) }},
	{GroupWindowFixture, func(d *Document) (bool, bool) { return fixtureProbe(d.WindowFixture) }},
	{GroupPlaceAsName, func(d *Document) (bool, bool) {
		if d.PlaceAsName == nil {
			return false, false
		}
		return true, d.PlaceAsName.Available
	}},
	{GroupDropShadow, func(d *Document) (bool, bool) {
		if d.DropShadow == nil {
			return false, false
		}
		return true, d.DropShadow.Available
	}},
	{GroupCustomToggles, func(d *Document) (bool, bool) {
		if d.CustomToggles == nil {
			return false, false
		}
		return true, d.CustomToggles.Available
	}},
}

func numericProbe(n *Numeric) (bool, bool) {
	if n == nil {
		return false, false
	}
	return true, n.Available
}

func toggleProbe(t *Toggle) (bool, bool) {
	if t == nil {
		return false, false
	}
	return true, t.Available
}

func pairProbe(p *AxisPair) (bool, bool) {
	if p == nil {
		return false, false
	}
	return true, p.Available
}

func fixtureProbe(f *Fixture) (bool, bool) {
	if f == nil {
		return false, false
	}
	return true, f.Available
}

// GroupIDs returns every known group id in declaration order.
func GroupIDs() []string {
	ids := make([]string, len(groupProbes))
	for i, g := range groupProbes {
		ids[i] = g.id
	}
	return ids
}

// Shape is the structural fingerprint of a document: which groups are
// present-and-available. Groups that are absent or unavailable both map to
// false, because neither occupies layout space.
type Shape map[string]bool

// ShapeOf computes a document's shape. A nil document has an all-false shape.
func ShapeOf(d *Document) Shape {
	s := make(Shape, len(groupProbes))
	for _, g := range groupProbes {
		if d == nil {
			s[g.id] = false
			continue
		}
		_, avail := g.probe(d)
		s[g.id] = avail
	}
	return s
}

// Grew reports whether next makes any group available that prev did not.
// Shrinking is deliberately not reported: a disappearing group can be hidden
// in place, but an appearing one has no realized controls to patch into.
func (prev Shape) Grew(next Shape) bool {
	for id, avail := range next {
		if avail && !prev[id] {
			return true
		}
	}
	return false
}

// Grown lists the group ids that become available going from prev to next.
func (prev Shape) Grown(next Shape) []string {
	var ids []string
	for _, g := range groupProbes {
		if next[g.id] && !prev[g.id] {
			ids = append(ids, g.id)
		}
	}
	return ids
}

// Equal reports whether two shapes are identical.
func (prev Shape) Equal(next Shape) bool {
	if len(prev) != len(next) {
		return false
	}
	for id, avail := range prev {
		if next[id] != avail {
			return false
		}
	}
	return true
}
