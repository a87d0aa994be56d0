// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package storage

// Repo holds the enumerated device tree and resolves short and long
// identifiers. It is built once from enumeration results and never
// mutated afterwards.
type Repo struct {
	devices []*StorageRef
	flat    []*StorageRef
	short   map[string]string // long ID -> short ID
}

// NewRepo builds a catalog from enumerator output, preserving enumeration
// order. Short IDs are the minimal unique suffix of each long ID across
// the whole parent+children set, so they are stable for a given device
// set.
func NewRepo(devices []*StorageRef) *Repo {
	r := &Repo{devices: devices}
	for _, d := range devices {
		r.flatten(d)
	}
	r.short = shortIDs(r.flat)
	return r
}

func (r *Repo) flatten(ref *StorageRef) {
	r.flat = append(r.flat, ref)
	for _, c := range ref.Children {
		r.flatten(c)
	}
}

// Devices returns the top-level catalog entries in enumeration order.
func (r *Repo) Devices() []*StorageRef {
	return r.devices
}

// ShortID returns the generated short identifier for a long ID, or ""
// if the ID is not in the catalog.
func (r *Repo) ShortID(id string) string {
	return r.short[id]
}

// FindByID resolves s against both long and short identifiers. An
// ambiguous match resolves to nothing.
func (r *Repo) FindByID(s string) *StorageRef {
	var found *StorageRef
	for _, ref := range r.flat {
		if ref.ID == s || r.short[ref.ID] == s {
			if found != nil {
				return nil
			}
			found = ref
		}
	}
	return found
}

// shortIDs computes, for every ID, the shortest suffix not shared with
// any other ID in the set.
func shortIDs(refs []*StorageRef) map[string]string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}

	out := make(map[string]string, len(ids))
	for _, id := range ids {
		for l := 1; l <= len(id); l++ {
			suffix := id[len(id)-l:]
			unique := true
			for _, other := range ids {
				if other == id {
					continue
				}
				if len(other) >= l && other[len(other)-l:] == suffix {
					unique = false
					break
				}
			}
			if unique {
				out[id] = suffix
				break
			}
		}
	}
	return out
}
