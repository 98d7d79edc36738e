/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package flags reads namespaced flags off host canvas documents and derives
// the editing mode the HUD uses to pick its button set.
package flags

import "strconv"

// Namespace is the flag namespace this add-on writes under.
const Namespace = "mapforge"

// Source is any host document exposing namespaced flags.
type Source interface {
	Flag(namespace, key string) (any, bool)
}

// Map is a plain in-memory Source, keyed namespace -> key -> value.
type Map map[string]map[string]any

// Flag implements Source.
func (m Map) Flag(namespace, key string) (any, bool) {
	ns, ok := m[namespace]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

// Bool reads a boolean flag; absent or mistyped flags read as false.
func Bool(src Source, namespace, key string) bool {
	v, ok := src.Flag(namespace, key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

// String reads a string flag; absent or mistyped flags read as "".
func String(src Source, namespace, key string) string {
	v, ok := src.Flag(namespace, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Float reads a numeric flag; absent or mistyped flags read as 0.
func Float(src Source, namespace, key string) float64 {
	v, ok := src.Flag(namespace, key)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Mode is the editing mode derived from a placed object's flags.
type Mode int

const (
	ModeNone Mode = iota
	ModePaths
	ModeTextures
	ModeBuildings
	ModeAssets
)

func (m Mode) String() string {
	switch m {
	case ModePaths:
		return "paths"
	case ModeTextures:
		return "textures"
	case ModeBuildings:
		return "buildings"
	case ModeAssets:
		return "assets"
	}
	return "none"
}

// EditMode inspects a document's flags and returns which editor the HUD
// should offer. Paths win over textures win over buildings win over assets,
// matching the specificity of what the flags describe.
func EditMode(src Source) Mode {
	switch {
	case Bool(src, Namespace, "isPath"):
		return ModePaths
	case Bool(src, Namespace, "isTexture"):
		return ModeTextures
	case Bool(src, Namespace, "isBuilding"):
		return ModeBuildings
	case Bool(src, Namespace, "isAsset"):
		return ModeAssets
	}
	return ModeNone
}
