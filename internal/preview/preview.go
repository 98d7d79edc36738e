/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview renders the drop-shadow preview thumbnails shown inside the
// options panel. Sprites are rasterized oversized, scaled down with a
// Catmull-Rom kernel, and cached by parameter signature so repeated dial
// drags with the same resting offset do not re-render.
package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"mapforge/internal/toolstate"
)

// DefaultSize is the square thumbnail edge in pixels.
const DefaultSize = 96

// renderScale oversamples the sprite before downscaling.
const renderScale = 4

// Generator renders and caches preview thumbnails. Safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	size  int
	cache map[string]*toolstate.PreviewImage
}

// NewGenerator returns a generator producing size×size thumbnails; size <= 0
// uses DefaultSize.
func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{size: size, cache: map[string]*toolstate.PreviewImage{}}
}

// Render produces the preview for a drop-shadow configuration. A nil or
// disabled configuration yields nil. Identical parameters return the cached
// image, so callers can swap previews by pointer comparison.
func (g *Generator) Render(ds *toolstate.DropShadow) *toolstate.PreviewImage {
	if ds == nil || !ds.Available || !ds.Enabled {
		return nil
	}
	key := fmt.Sprintf("%.1f/%.1f/%.1f", ds.Offset.Distance, ds.Offset.Angle, ds.MaxRadius)

	g.mu.Lock()
	if p, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return p
	}
	g.mu.Unlock()

	img := renderSprite(g.size*renderScale, ds)
	thumb := scaleDown(img, g.size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil
	}
	p := &toolstate.PreviewImage{
		Src:       "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:     g.size,
		Height:    g.size,
		Signature: signature(thumb),
		UpdatedAt: time.Now().UTC(),
		Alt:       "Drop shadow preview",
	}

	g.mu.Lock()
	g.cache[key] = p
	g.mu.Unlock()
	return p
}

// renderSprite draws a light square with its shadow displaced by the polar
// offset, normalized so MaxRadius maps to the sprite margin.
func renderSprite(size int, ds *toolstate.DropShadow) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	margin := float64(size) / 4
	scale := 0.0
	if ds.MaxRadius > 0 {
		scale = margin / ds.MaxRadius
	}
	rad := ds.Offset.Angle * math.Pi / 180
	ox := ds.Offset.Distance * scale * math.Cos(rad)
	oy := ds.Offset.Distance * scale * math.Sin(rad)

	boxMin := float64(size) / 4
	boxMax := 3 * float64(size) / 4

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x), float64(y)
			// shadow first, sprite on top
			sx, sy := fx-ox, fy-oy
			if sx >= boxMin && sx < boxMax && sy >= boxMin && sy < boxMax {
				img.SetNRGBA(x, y, color.NRGBA{A: 110})
			}
			if fx >= boxMin && fx < boxMax && fy >= boxMin && fy < boxMax {
				img.SetNRGBA(x, y, color.NRGBA{R: 226, G: 228, B: 232, A: 255})
			}
		}
	}
	return img
}

func scaleDown(src *image.NRGBA, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// signature hashes the pixel data; it changes iff the rendered pixels change.
func signature(img *image.NRGBA) string {
	h := fnv.New64a()
	_, _ = h.Write(img.Pix)
	return fmt.Sprintf("%016x", h.Sum64())
}
