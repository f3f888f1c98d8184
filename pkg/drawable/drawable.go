package drawable

import (
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/logging"
)

// Drawable is an object a rendering layer can style and send commands to.
type Drawable interface {
	Kind() Kind
	Attributes() *Attributes
	Execute(command string) error
}

// Base carries what every drawable has. Embed it and override Execute for
// the commands a kind supports. The zero Base has no kind and no defaults.
type Base struct {
	attrs *Attributes
}

// NewBase builds a Base for kind with the process-wide defaults.
func NewBase(kind Kind) Base {
	return Base{attrs: NewAttributes(kind)}
}

// NewBaseWith builds a Base for kind from d.
func NewBaseWith(d *Defaults, kind Kind) Base {
	return Base{attrs: d.Attributes(kind)}
}

func (b *Base) Kind() Kind {
	if b.attrs == nil {
		return ""
	}
	return b.attrs.Kind()
}

// Attributes returns the instance attributes, creating an empty set for a
// zero Base.
func (b *Base) Attributes() *Attributes {
	if b.attrs == nil {
		b.attrs = &Attributes{defaults: noDefaults}
	}
	return b.attrs
}

// Execute supports no command.
func (b *Base) Execute(command string) error {
	return unsupported(b.Kind(), command)
}

func unsupportedError(kind Kind, command string) error {
	logger := logging.GetLogger("drawable")
	logger.Warn().Str("kind", string(kind)).Str("command", command).Msg("Unsupported command")
	return errors.Newf(errors.ErrUnsupportedAction, "%q does not support %q", kind, command).
		WithDetail("kind", string(kind)).
		WithDetail("command", command)
}
