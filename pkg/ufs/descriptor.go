package ufs

import "fmt"

// Descriptor is the serializable, typed handle for a Store: a discriminator
// tag plus an opaque parameter bag, used wherever a Store needs to cross a
// process or network boundary (Process combinator spawn, FUSE mount
// subprocess rehydration, socket RPC bootstrap) and be reconstructed on the
// other side. This replaces the Python original's `to_dict`/`from_dict`
// dynamic-import dispatch (`importlib.import_module`) with a compile-time
// registry: every Store constructor that wants to be spawnable registers
// itself under a Cls tag via RegisterDescriptor in an init() function, and
// FromDescriptor dispatches to it.
type Descriptor struct {
	Cls    string
	Params map[string]any
}

type descriptorFactory func(params map[string]any) (Store, error)

var registry = map[string]descriptorFactory{}

// RegisterDescriptor associates cls with a factory able to reconstruct a
// Store from its Params bag. Intended to be called from a package-level
// init() by every Store implementation that can be named in a Descriptor.
func RegisterDescriptor(cls string, factory func(params map[string]any) (Store, error)) {
	registry[cls] = factory
}

// FromDescriptor reconstructs a Store from d, dispatching on d.Cls.
func FromDescriptor(d Descriptor) (Store, error) {
	factory, ok := registry[d.Cls]
	if !ok {
		return nil, fmt.Errorf("ufs: no registered store for descriptor class %q", d.Cls)
	}
	return factory(d.Params)
}

// Describable is implemented by any Store that can serialize itself back
// into a Descriptor (the inverse of FromDescriptor). Combinators implement
// this by describing themselves plus recursively describing whatever
// Store(s) they wrap, mirroring the Python original's recursive
// `to_dict()` (e.g. Prefix.to_dict() nests its wrapped ufs's to_dict()).
type Describable interface {
	Describe() Descriptor
}
