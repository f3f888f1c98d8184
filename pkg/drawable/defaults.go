package drawable

import (
	"maps"

	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/registry"
)

// Kind names a family of drawables sharing default attributes.
type Kind string

// noDefaults backs every kind that registered nothing. It is never written.
var noDefaults = map[string]string{}

// Defaults holds the per-kind default attribute maps.
type Defaults struct {
	kinds registry.Registry[map[string]string]
}

// NewDefaults returns an empty, unfrozen set of defaults.
func NewDefaults() *Defaults {
	return &Defaults{kinds: registry.New[map[string]string]()}
}

// Register sets the defaults of kind. The map is copied. Each kind can be
// registered once, and only before Freeze.
func (d *Defaults) Register(kind Kind, attrs map[string]string) error {
	if kind == "" {
		return errors.New(errors.ErrInvalidInput, "drawable kind cannot be empty")
	}
	if err := d.kinds.Register(string(kind), maps.Clone(attrs)); err != nil {
		if errors.IsErrorCode(err, errors.ErrAlreadyFrozen) {
			return errors.Newf(errors.ErrAlreadyFrozen, "defaults for %s registered after drawables were created", kind)
		}
		return err
	}
	return nil
}

// Freeze ends registration. Defaults are read without locking afterwards.
func (d *Defaults) Freeze() { d.kinds.Freeze() }

// Frozen reports whether Freeze was called.
func (d *Defaults) Frozen() bool { return d.kinds.Frozen() }

// Kinds lists the kinds with registered defaults.
func (d *Defaults) Kinds() []Kind {
	names := d.kinds.List()
	kinds := make([]Kind, len(names))
	for i, n := range names {
		kinds[i] = Kind(n)
	}
	return kinds
}

// Lookup returns the default value of name for kind.
func (d *Defaults) Lookup(kind Kind, name string) (string, bool) {
	v, ok := d.of(kind)[name]
	return v, ok
}

func (d *Defaults) of(kind Kind) map[string]string {
	if m, ok := d.kinds.Lookup(string(kind)); ok && m != nil {
		return m
	}
	return noDefaults
}

// Attributes returns an attribute set for a new drawable of kind. The
// first call freezes d; an instance keeps the defaults it was built with.
func (d *Defaults) Attributes(kind Kind) *Attributes {
	if !d.Frozen() {
		d.Freeze()
	}
	return &Attributes{kind: kind, defaults: d.of(kind)}
}

var global = NewDefaults()

// RegisterDefaults registers kind's defaults in the process-wide set.
func RegisterDefaults(kind Kind, attrs map[string]string) error {
	return global.Register(kind, attrs)
}

// Freeze freezes the process-wide defaults.
func Freeze() { global.Freeze() }

// NewAttributes returns an attribute set for kind backed by the
// process-wide defaults.
func NewAttributes(kind Kind) *Attributes {
	return global.Attributes(kind)
}
