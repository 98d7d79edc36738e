/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compendium holds the filter dialog state for the asset compendium
// browser. It is glue around the host's compendium view: the dialog remembers
// which filters the user set, persists them across sessions, and narrows an
// entry list down to what matches.
package compendium

import (
	"log/slog"
	"strings"
	"sync"

	applog "mapforge/internal/log"
)

const (
	nsCompendium = "compendium"
	keyFilters   = "filters"
)

// Store is the slice of the settings store the dialog needs.
type Store interface {
	GetJSON(namespace, key string, out any) (bool, error)
	SetJSON(namespace, key string, v any) error
}

// Entry is one compendium item as handed over by the host.
type Entry struct {
	ID   string
	Name string
	Type string
	Tags []string
}

// Filters is the persisted filter state.
type Filters struct {
	Query string          `json:"query,omitempty"`
	Types map[string]bool `json:"types,omitempty"`
}

// Match reports whether an entry passes the filters. An empty type set
// passes every type; the query matches name and tags case-insensitively.
func (f Filters) Match(e Entry) bool {
	if len(f.Types) > 0 && !f.Types[e.Type] {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (f Filters) clone() Filters {
	c := Filters{Query: f.Query}
	if len(f.Types) > 0 {
		c.Types = make(map[string]bool, len(f.Types))
		for k, v := range f.Types {
			c.Types[k] = v
		}
	}
	return c
}

// Dialog is the filter dialog's state. Safe for concurrent use.
type Dialog struct {
	mu      sync.Mutex
	st      Store
	log     *slog.Logger
	filters Filters
	open    bool
	changed []func(Filters)
}

// NewDialog loads the persisted filters, if any.
func NewDialog(st Store) *Dialog {
	d := &Dialog{st: st, log: applog.WithComponent("compendium")}
	if st != nil {
		var f Filters
		if ok, err := st.GetJSON(nsCompendium, keyFilters, &f); err != nil {
			d.log.Warn("load compendium filters", "error", err)
		} else if ok {
			d.filters = f
		}
	}
	return d
}

// Open marks the dialog visible.
func (d *Dialog) Open() {
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()
}

// Close marks the dialog hidden.
func (d *Dialog) Close() {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
}

// IsOpen reports the dialog visibility.
func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Filters returns a copy of the current filter state.
func (d *Dialog) Filters() Filters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.clone()
}

// SetQuery updates the free-text query.
func (d *Dialog) SetQuery(q string) {
	d.mu.Lock()
	d.filters.Query = q
	d.commitLocked()
}

// SetType toggles one entry type on or off.
func (d *Dialog) SetType(t string, on bool) {
	d.mu.Lock()
	if d.filters.Types == nil {
		d.filters.Types = map[string]bool{}
	}
	if on {
		d.filters.Types[t] = true
	} else {
		delete(d.filters.Types, t)
		if len(d.filters.Types) == 0 {
			d.filters.Types = nil
		}
	}
	d.commitLocked()
}

// Reset clears all filters.
func (d *Dialog) Reset() {
	d.mu.Lock()
	d.filters = Filters{}
	d.commitLocked()
}

// OnChange registers a listener invoked after every filter change.
func (d *Dialog) OnChange(fn func(Filters)) {
	d.mu.Lock()
	d.changed = append(d.changed, fn)
	d.mu.Unlock()
}

// Apply returns the entries passing the current filters, in input order.
func (d *Dialog) Apply(entries []Entry) []Entry {
	f := d.Filters()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// commitLocked persists and notifies; it releases d.mu.
func (d *Dialog) commitLocked() {
	f := d.filters.clone()
	listeners := append([](func(Filters))(nil), d.changed...)
	d.mu.Unlock()

	if d.st != nil {
		if err := d.st.SetJSON(nsCompendium, keyFilters, f); err != nil {
			d.log.Warn("save compendium filters", "error", err)
		}
	}
	for _, fn := range listeners {
		fn(f)
	}
}
