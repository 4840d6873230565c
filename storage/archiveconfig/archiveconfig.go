// Package archiveconfig opens archive backends from a JSON config file.
package archiveconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sectormesh/routing/storage"
	"github.com/sectormesh/routing/storage/grpcarchive"
	"github.com/sectormesh/routing/storage/localfs"
)

// Config describes how to open one or more archive backends.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in
//   order
// - "all": write to all backends and require ID equality (see
//   storage.ReplicatingArchive)
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"kind":"localfs", "dir":"/var/lib/sectormesh/archive"},
//	    {"kind":"grpc", "target":"archive.internal:7400"}
//	  ]
//	}
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Kind selects the backend: "memory", "localfs" or "grpc".
	Kind string `json:"kind"`
	// ID is an optional stable alias used for identification and
	// per-backend ID maps. If empty, Kind is used.
	ID string `json:"id,omitempty"`

	// Dir is the root directory for "localfs".
	Dir string `json:"dir,omitempty"`
	// Target is the dial target for "grpc".
	Target string `json:"target,omitempty"`
	// TimeoutMS is the per-RPC timeout for "grpc" when non-zero.
	TimeoutMS int `json:"timeout_ms,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("archiveconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("archiveconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		switch b.Kind {
		case "memory":
		case "localfs":
			if b.Dir == "" {
				return errors.New("archiveconfig: localfs backend needs a dir")
			}
		case "grpc":
			if b.Target == "" {
				return errors.New("archiveconfig: grpc backend needs a target")
			}
		case "":
			return errors.New("archiveconfig: backend kind is required")
		default:
			return fmt.Errorf("archiveconfig: unknown backend kind %q", b.Kind)
		}
		id := b.Kind
		if b.ID != "" {
			id = b.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("archiveconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("archiveconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens an archive per config.
//
// If preferredBackend is non-empty, backends are reordered so it comes
// first (and is thus used for writes when WritePolicy == "first").
func (c Config) Open(preferredBackend string) (storage.Archive, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferredBackend != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Kind == preferredBackend || ordered[i].ID == preferredBackend {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("archiveconfig: preferred backend %q not found in config", preferredBackend)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]storage.NamedArchive, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range ordered {
		a, closeFn, err := open(b)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		name := b.Kind
		if b.ID != "" {
			name = b.ID
		}
		named = append(named, storage.NamedArchive{Name: name, Archive: a})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].Archive, closeAll, nil
	}

	switch c.WritePolicy {
	case "", "first":
		backends := make([]storage.Archive, 0, len(named))
		for _, n := range named {
			backends = append(backends, n.Archive)
		}
		return storage.MultiArchive{Backends: backends}, closeAll, nil
	case "all":
		return storage.ReplicatingArchive{Backends: named}, closeAll, nil
	default:
		return nil, nil, fmt.Errorf("archiveconfig: invalid write_policy %q", c.WritePolicy)
	}
}

func open(b BackendConfig) (storage.Archive, func() error, error) {
	switch b.Kind {
	case "memory":
		return storage.NewMemory(), nil, nil
	case "localfs":
		a, err := localfs.New(b.Dir)
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	case "grpc":
		client, err := grpcarchive.Dial(b.Target, grpcarchive.DialOptions{})
		if err != nil {
			return nil, nil, err
		}
		if b.TimeoutMS > 0 {
			client.Timeout = time.Duration(b.TimeoutMS) * time.Millisecond
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("archiveconfig: unknown backend kind %q", b.Kind)
	}
}
