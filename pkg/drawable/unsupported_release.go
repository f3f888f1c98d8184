//go:build !debug

package drawable

func unsupported(kind Kind, command string) error {
	return unsupportedError(kind, command)
}
