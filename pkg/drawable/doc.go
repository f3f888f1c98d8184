// Package drawable provides the attribute and command layer shared by
// drawable objects.
//
// Every drawable kind has one set of default attributes, registered at
// startup and frozen before any drawable is built. Each instance layers its
// own overrides on top:
//
//	defaults := drawable.NewDefaults()
//	_ = defaults.Register("box", map[string]string{"color": "red"})
//	defaults.Freeze()
//
//	attrs := defaults.Attributes("box")
//	attrs.Set("color", "blue")
//	attrs.Eval("color") // "blue", true
//
// Commands reach a drawable through Execute. Base rejects every command;
// concrete drawables embed Base and handle the commands they support.
package drawable
