/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tooloptions

import (
	"mapforge/internal/panel"
	"mapforge/internal/toolstate"
)

// groupGrid is the panel-level grid section; its values live on the
// Controller, not in any tool document.
const groupGrid = "grid"

// groupBinders is the declarative group registry in layout order. Adding a
// control group means adding one entry here (plus its document field and
// shape probe); bind/sync/layout all derive from it.
var groupBinders = []binder{
	gridControl{},

	numericControl{toolstate.GroupOpacity, "setOpacity", func(d *toolstate.Document) *toolstate.Numeric { return d.Opacity }},
	numericControl{toolstate.GroupScale, "setScale", func(d *toolstate.Document) *toolstate.Numeric { return d.Scale }},
	numericControl{toolstate.GroupRotation, "setRotation", func(d *toolstate.Document) *toolstate.Numeric { return d.Rotation }},
	numericControl{toolstate.GroupTextureBrushSize, "setTextureBrushSize", func(d *toolstate.Document) *toolstate.Numeric { return d.TextureBrushSize }},
	numericControl{toolstate.GroupTextureBrushOpacity, "setTextureBrushOpacity", func(d *toolstate.Document) *toolstate.Numeric { return d.TextureBrushOpacity }},
	numericControl{toolstate.GroupTextureBrushSmoothing, "setTextureBrushSmoothing", func(d *toolstate.Document) *toolstate.Numeric { return d.TextureBrushSmoothing }},
	numericControl{toolstate.GroupScatterDensity, "setScatterDensity", func(d *toolstate.Document) *toolstate.Numeric { return d.ScatterDensity }},
	numericControl{toolstate.GroupScatterJitter, "setScatterJitter", func(d *toolstate.Document) *toolstate.Numeric { return d.ScatterJitter }},
	numericControl{toolstate.GroupHeightBrush, "setHeightBrush", func(d *toolstate.Document) *toolstate.Numeric { return d.HeightBrush }},
	numericControl{toolstate.GroupPathShadowScale, "setPathShadowScale", func(d *toolstate.Document) *toolstate.Numeric { return d.PathShadowScale }},
	numericControl{toolstate.GroupPathShadowOpacity, "setPathShadowOpacity", func(d *toolstate.Document) *toolstate.Numeric { return d.PathShadowOpacity }},
	numericControl{toolstate.GroupElevation, "setElevation", func(d *toolstate.Document) *toolstate.Numeric { return d.Elevation }},
	numericControl{toolstate.GroupSortHeight, "setSortHeight", func(d *toolstate.Document) *toolstate.Numeric { return d.SortHeight }},

	presetControl{toolstate.GroupPathShadowPreset, "setPathShadowPreset", func(d *toolstate.Document) *toolstate.PresetBank { return d.PathShadowPreset }},

	toggleControl{toolstate.GroupFlipH, "setFlipH", func(d *toolstate.Document) *toolstate.Toggle { return d.FlipH }},
	toggleControl{toolstate.GroupFlipV, "setFlipV", func(d *toolstate.Document) *toolstate.Toggle { return d.FlipV }},
	toggleControl{toolstate.GroupLockRotation, "setLockRotation", func(d *toolstate.Document) *toolstate.Toggle { return d.LockRotation }},
	toggleControl{toolstate.GroupRandomizeRotation, "setRandomizeRotation", func(d *toolstate.Document) *toolstate.Toggle { return d.RandomizeRotation }},

	pairControl{toolstate.GroupOffset, "setOffsetX", "setOffsetY", func(d *toolstate.Document) *toolstate.AxisPair { return d.Offset }},
	pairControl{toolstate.GroupPathFeather, "setPathFeatherStart", "setPathFeatherEnd", func(d *toolstate.Document) *toolstate.AxisPair { return d.PathFeather }},
	pairControl{toolstate.GroupOpacityFeather, "setOpacityFeatherStart", "setOpacityFeatherEnd", func(d *toolstate.Document) *toolstate.AxisPair { return d.OpacityFeather }},
	pairControl{toolstate.GroupHeightMapRange, "setHeightMapRangeMin", "setHeightMapRangeMax", func(d *toolstate.Document) *toolstate.AxisPair { return d.HeightMapRange }},

	fixtureControl{toolstate.GroupDoorFixture, "setDoorWidth", "setDoorState", "setDoorVariant", func(d *toolstate.Document) *toolstate.Fixture { return d.DoorFixture }},
	fixtureControl{toolstate.GroupWindowFixture, "setWindowWidth", "setWindowState", "setWindowVariant", func(d *toolstate.Document) *toolstate.Fixture { return d.WindowFixture }},

	namingControl{},
	dropShadowControl{},
	customTogglesControl{},
}

// bindersByGroup resolves a group id to its binder for targeted re-syncs.
var bindersByGroup = func() map[string]binder {
	m := make(map[string]binder, len(groupBinders))
	for _, b := range groupBinders {
		m[b.group()] = b
	}
	return m
}()

// layoutFor builds the declarative panel description for one document. Only
// present-and-available groups get realized controls; a group that later
// turns unavailable is hidden in place by its sync, while a group that turns
// available forces a rebuild through the shape diff.
func layoutFor(doc *toolstate.Document, title string, shortcutsCollapsed bool) panel.Layout {
	l := panel.Layout{Title: title}

	l.Sections = append(l.Sections, panel.Section{
		ID:    groupGrid,
		Title: "Grid",
		Controls: []panel.ControlSpec{
			{Marker: markerGridSnap, Kind: panel.KindToggle, Label: "Snap to grid"},
			{Marker: markerGridSubdivision, Kind: panel.KindNumeric, Label: "Subdivisions"},
		},
	})

	var main []panel.ControlSpec
	for _, b := range groupBinders {
		switch b.(type) {
		case gridControl, namingControl, dropShadowControl, customTogglesControl:
			continue
		}
		main = append(main, specsFor(b, doc)...)
	}
	if len(main) > 0 {
		l.Sections = append(l.Sections, panel.Section{ID: "controls", Title: "Controls", Controls: main})
	}

	if ds := docDropShadow(doc); ds != nil {
		l.Sections = append(l.Sections, panel.Section{
			ID:    toolstate.GroupDropShadow,
			Title: "Drop Shadow",
			Controls: []panel.ControlSpec{
				{Marker: markerShadowEnabled, Kind: panel.KindToggle, Label: "Drop shadow"},
				{Marker: markerShadowDial, Kind: panel.KindDial},
				{Marker: markerShadowPreview, Kind: panel.KindPreview},
			},
		})
	}

	if doc != nil && doc.PlaceAsName != nil && doc.PlaceAsName.Available {
		l.Sections = append(l.Sections, panel.Section{
			ID:    toolstate.GroupPlaceAsName,
			Title: "Naming",
			Controls: []panel.ControlSpec{
				{Marker: markerNamingInput, Kind: panel.KindText, Label: doc.PlaceAsName.Placeholder},
				{Marker: markerNamingCounter, Kind: panel.KindToggle, Label: "Numbered suffix"},
			},
		})
	}

	if doc != nil && doc.CustomToggles != nil && doc.CustomToggles.Available && len(doc.CustomToggles.Items) > 0 {
		var specs []panel.ControlSpec
		for _, item := range doc.CustomToggles.Items {
			specs = append(specs, panel.ControlSpec{
				Marker:  customToggleMarker(item.ID),
				Kind:    panel.KindToggle,
				Label:   item.Label,
				Tooltip: item.Tooltip,
			})
		}
		l.Sections = append(l.Sections, panel.Section{
			ID:          toolstate.GroupCustomToggles,
			Title:       "Shortcuts",
			Collapsible: true,
			Collapsed:   shortcutsCollapsed,
			Controls:    specs,
		})
	}

	return l
}

func docDropShadow(doc *toolstate.Document) *toolstate.DropShadow {
	if doc == nil || doc.DropShadow == nil || !doc.DropShadow.Available {
		return nil
	}
	return doc.DropShadow
}

// specsFor yields the realized-control specs for one main-section group.
func specsFor(b binder, doc *toolstate.Document) []panel.ControlSpec {
	if doc == nil {
		return nil
	}
	switch g := b.(type) {
	case numericControl:
		n := g.get(doc)
		if n == nil || !n.Available {
			return nil
		}
		return []panel.ControlSpec{{
			Marker:     g.id,
			Kind:       panel.KindNumeric,
			SubMarkers: []string{g.id + "-display"},
		}}
	case toggleControl:
		t := g.get(doc)
		if t == nil || !t.Available {
			return nil
		}
		return []panel.ControlSpec{{
			Marker:  g.id,
			Kind:    panel.KindToggle,
			Label:   t.Label,
			Tooltip: t.Tooltip,
		}}
	case pairControl:
		p := g.get(doc)
		if p == nil || !p.Available {
			return nil
		}
		return []panel.ControlSpec{
			{Marker: g.id + "-first", Kind: panel.KindNumeric, Label: p.FirstLabel},
			{Marker: g.id + "-second", Kind: panel.KindNumeric, Label: p.SecondLabel},
		}
	case presetControl:
		p := g.get(doc)
		if p == nil || !p.Available {
			return nil
		}
		return []panel.ControlSpec{{Marker: g.id, Kind: panel.KindSelect}}
	case fixtureControl:
		f := g.get(doc)
		if f == nil || !f.Available {
			return nil
		}
		return []panel.ControlSpec{
			{Marker: g.id + "-width", Kind: panel.KindNumeric},
			{Marker: g.id + "-state", Kind: panel.KindSelect, Label: f.State.Label},
			{Marker: g.id + "-variant", Kind: panel.KindSelect, Label: f.Variant.Label},
		}
	}
	return nil
}
