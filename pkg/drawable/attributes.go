package drawable

import "maps"

// Attributes resolves a drawable's attribute values. Instance overrides
// win over the kind's defaults. An Attributes is owned by one drawable and
// is not safe for concurrent mutation.
type Attributes struct {
	kind      Kind
	defaults  map[string]string
	overrides map[string]string
}

// Kind returns the kind the defaults come from.
func (a *Attributes) Kind() Kind { return a.kind }

// Eval returns the effective value of name.
func (a *Attributes) Eval(name string) (string, bool) {
	if v, ok := a.overrides[name]; ok {
		return v, true
	}
	v, ok := a.defaults[name]
	return v, ok
}

// Set overrides name for this instance.
func (a *Attributes) Set(name, value string) {
	if a.overrides == nil {
		a.overrides = make(map[string]string)
	}
	a.overrides[name] = value
}

// Unset drops the override of name, exposing the default again.
func (a *Attributes) Unset(name string) {
	delete(a.overrides, name)
}

// Overrides returns a copy of the instance overrides.
func (a *Attributes) Overrides() map[string]string {
	return maps.Clone(a.overrides)
}

// SetOverrides replaces every instance override, for example with a map
// read back from a store.
func (a *Attributes) SetOverrides(overrides map[string]string) {
	a.overrides = maps.Clone(overrides)
}
