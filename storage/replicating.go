package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// NamedArchive associates an archive backend with a stable name, for
// per-backend reporting.
type NamedArchive struct {
	Name    string
	Archive Archive
}

// ReplicatingArchive writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all
// returned IDs to match (otherwise ErrIDMismatch is returned).
//
// Use PutAll when you need the per-backend ID mapping.
type ReplicatingArchive struct {
	Backends []NamedArchive
}

var _ Archive = (*ReplicatingArchive)(nil)

// PutAll writes the same wire bytes to all backends. It returns the
// canonical ID plus a map of backend name to the ID that backend reported.
func (r ReplicatingArchive) PutAll(wire []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := MessageID(wire)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidID
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingArchive has no backends")
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.Archive == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil archive for backend %q", b.Name)
		}
		got, err := b.Archive.Put(wire)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingArchive) Put(wire []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(wire)
	return id, err
}

func (r ReplicatingArchive) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Archive == nil {
			continue
		}
		out, err := b.Archive.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingArchive) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.Archive != nil && b.Archive.Has(id) {
			return true
		}
	}
	return false
}
