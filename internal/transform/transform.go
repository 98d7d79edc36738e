/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transform converts between world (scene) coordinates and screen
// pixels, used to position editor popovers next to canvas objects.
package transform

// Viewport describes the visible portion of the scene: the world coordinate
// at the top-left screen corner and the zoom scale (screen px per world unit).
type Viewport struct {
	OriginX float64
	OriginY float64
	Scale   float64
}

// WorldToScreen maps a world coordinate to screen pixels.
func (v Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	s := v.scale()
	return (wx - v.OriginX) * s, (wy - v.OriginY) * s
}

// ScreenToWorld maps screen pixels back into world coordinates.
func (v Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	s := v.scale()
	return sx/s + v.OriginX, sy/s + v.OriginY
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// ClampToScreen keeps a popover of size (w, h) fully inside a screen of size
// (screenW, screenH), preferring the given anchor position.
func ClampToScreen(x, y, w, h, screenW, screenH float64) (float64, float64) {
	if x+w > screenW {
		x = screenW - w
	}
	if y+h > screenH {
		y = screenH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
