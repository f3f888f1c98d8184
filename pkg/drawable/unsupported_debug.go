//go:build debug

package drawable

// unsupported panics so a missing command handler is caught in development.
func unsupported(kind Kind, command string) error {
	panic(unsupportedError(kind, command))
}
