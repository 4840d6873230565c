package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiArchive provides deterministic, ordered fallback across multiple
// archive backends.
//
// Hydration order is the slice order in Backends; callers MUST supply a
// fixed order. This avoids map-iteration nondeterminism and makes the
// retrieval strategy explicit.
//
// Put writes only to the first backend.
type MultiArchive struct {
	Backends []Archive
}

func (m MultiArchive) Put(wire []byte) (cid.Cid, error) {
	if len(m.Backends) == 0 {
		return cid.Undef, errors.New("storage: MultiArchive has no backends")
	}
	return m.Backends[0].Put(wire)
}

func (m MultiArchive) Get(id cid.Cid) ([]byte, error) {
	for _, a := range m.Backends {
		b, err := a.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiArchive) Has(id cid.Cid) bool {
	for _, a := range m.Backends {
		if a.Has(id) {
			return true
		}
	}
	return false
}
