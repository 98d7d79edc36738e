/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hooks implements the host lifecycle event bus the add-on attaches to:
// named hooks with On/Once registration and CallAll dispatch. A panicking
// listener is isolated and logged so it cannot break delivery to the rest.
package hooks

import (
	"log/slog"
	"sync"

	applog "mapforge/internal/log"
)

// Listener receives the hook payload.
type Listener func(args ...any)

type entry struct {
	id   uint64
	fn   Listener
	once bool
}

// Bus is a named-event dispatcher. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	hooks  map[string][]entry
	log    *slog.Logger
}

// NewBus creates an empty hook bus.
func NewBus() *Bus {
	return &Bus{
		hooks: make(map[string][]entry),
		log:   applog.WithComponent("hooks"),
	}
}

// On registers a listener for the named hook and returns its unsubscribe func.
// Unsubscribing twice is a no-op.
func (b *Bus) On(name string, fn Listener) (off func()) {
	return b.register(name, fn, false)
}

// Once registers a listener that is removed after its first invocation.
func (b *Bus) Once(name string, fn Listener) (off func()) {
	return b.register(name, fn, true)
}

func (b *Bus) register(name string, fn Listener, once bool) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.hooks[name] = append(b.hooks[name], entry{id: id, fn: fn, once: once})
	b.mu.Unlock()
	return func() { b.remove(name, id) }
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.hooks[name]
	for i, e := range list {
		if e.id == id {
			b.hooks[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// CallAll invokes every listener registered for the named hook, in
// registration order. Once-listeners are removed before dispatch so a hook
// fired from inside a listener cannot re-enter them.
func (b *Bus) CallAll(name string, args ...any) {
	b.mu.Lock()
	list := append([]entry(nil), b.hooks[name]...)
	kept := b.hooks[name][:0]
	for _, e := range b.hooks[name] {
		if !e.once {
			kept = append(kept, e)
		}
	}
	b.hooks[name] = kept
	b.mu.Unlock()

	for _, e := range list {
		b.call(name, e.fn, args)
	}
}

func (b *Bus) call(name string, fn Listener, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("hook listener panicked", slog.String("hook", name), slog.Any("panic", r))
		}
	}()
	fn(args...)
}

// ListenerCount reports how many listeners are registered for a hook.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hooks[name])
}
