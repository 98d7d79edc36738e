/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package flags

import "testing"

func TestTypedReadersTolerateMissingAndMistyped(t *testing.T) {
	src := Map{Namespace: {
		"isPath":  true,
		"label":   "Stone Road",
		"width":   2.5,
		"textual": "true",
		"count":   3,
	}}

	if !Bool(src, Namespace, "isPath") {
		t.Fatalf("bool flag not read")
	}
	if Bool(src, Namespace, "missing") {
		t.Fatalf("missing flag should read false")
	}
	if !Bool(src, Namespace, "textual") {
		t.Fatalf("string 'true' should read as boolean true")
	}
	if got := String(src, Namespace, "label"); got != "Stone Road" {
		t.Fatalf("string flag: %q", got)
	}
	if got := String(src, Namespace, "width"); got != "" {
		t.Fatalf("mistyped string read should be empty, got %q", got)
	}
	if got := Float(src, Namespace, "width"); got != 2.5 {
		t.Fatalf("float flag: %v", got)
	}
	if got := Float(src, Namespace, "count"); got != 3 {
		t.Fatalf("int flag as float: %v", got)
	}
}

func TestEditModePrecedence(t *testing.T) {
	cases := []struct {
		name string
		set  map[string]any
		want Mode
	}{
		{"path wins over texture", map[string]any{"isPath": true, "isTexture": true}, ModePaths},
		{"texture", map[string]any{"isTexture": true}, ModeTextures},
		{"building", map[string]any{"isBuilding": true}, ModeBuildings},
		{"asset", map[string]any{"isAsset": true}, ModeAssets},
		{"none", map[string]any{}, ModeNone},
	}
	for _, tc := range cases {
		src := Map{Namespace: tc.set}
		if got := EditMode(src); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}
