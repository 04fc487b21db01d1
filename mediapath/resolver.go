package mediapath

import (
	"fmt"
	"path/filepath"
)

// Environment is the deployment mode. It never changes which candidates are
// probed on the read path; it only selects the directory tree the rewriter
// treats as writable when it has to materialize a missing location.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ParseEnvironment maps a config mode string to an Environment, defaulting
// to development.
func ParseEnvironment(mode string) Environment {
	if mode == string(EnvProduction) {
		return EnvProduction
	}
	return EnvDevelopment
}

// LocationKind distinguishes the physical backends a candidate can point at.
type LocationKind string

const (
	LocationFilesystem    LocationKind = "filesystem"
	LocationObjectStorage LocationKind = "object_storage"
	LocationExternal      LocationKind = "external"
)

// CandidateLocation is one place to check for an asset during resolution.
type CandidateLocation struct {
	Kind   LocationKind
	Path   string // filesystem path, relative to the resolver root
	Bucket Bucket // object storage
	Key    string // object storage
	URL    string // external
}

func (c CandidateLocation) String() string {
	switch c.Kind {
	case LocationFilesystem:
		return "filesystem:" + c.Path
	case LocationObjectStorage:
		return fmt.Sprintf("object_storage:%s/%s", c.Bucket, c.Key)
	case LocationExternal:
		return "external:" + c.URL
	default:
		return "unknown"
	}
}

// Resolver computes the ordered candidate list for a classified reference.
// It holds only configuration and performs no I/O.
type Resolver struct {
	Env  Environment
	Root string // directory containing both the uploads/ tree and the bare legacy tree
}

func NewResolver(env Environment, root string) *Resolver {
	if root == "" {
		root = "."
	}
	return &Resolver{Env: env, Root: root}
}

// Resolve returns candidate locations in fixed priority order with exact
// duplicates removed:
//
//  1. the literal bucket/key of a proxy-qualified reference
//  2. the uploads-qualified filesystem twin uploads/<dir>/<filename>
//  3. the bare filesystem twin <dir>/<filename>
//  4. object storage under the inferred bucket
//
// Historical rows were written in all of these shapes, sometimes with the
// uploads prefix and sometimes without, so every shape is probed in both
// environments. Resolve never fails; unresolvable references yield no
// candidates and external references yield a single direct-fetch entry.
func (r *Resolver) Resolve(ref MediaReference) []CandidateLocation {
	switch ref.Kind {
	case KindUnresolvable:
		return nil
	case KindExternalAbsolute:
		return []CandidateLocation{{Kind: LocationExternal, URL: ref.Raw}}
	}

	var out []CandidateLocation
	seen := make(map[string]struct{}, 4)
	add := func(c CandidateLocation) {
		key := c.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	if ref.Kind == KindProxyQualified {
		add(CandidateLocation{Kind: LocationObjectStorage, Bucket: ref.Bucket, Key: ref.Key})
	}

	dir := DirectoryFor(ref.Bucket)
	add(CandidateLocation{
		Kind: LocationFilesystem,
		Path: filepath.Join(r.Root, "uploads", dir, ref.Filename),
	})
	add(CandidateLocation{
		Kind: LocationFilesystem,
		Path: filepath.Join(r.Root, dir, ref.Filename),
	})
	add(CandidateLocation{Kind: LocationObjectStorage, Bucket: ref.Bucket, Key: ref.Filename})

	return out
}

// WritableRoot is the tree the rewriter may create files under. Production
// deployments serve from the uploads tree; development keeps the flat legacy
// layout.
func (r *Resolver) WritableRoot() string {
	if r.Env == EnvProduction {
		return filepath.Join(r.Root, "uploads")
	}
	return r.Root
}
