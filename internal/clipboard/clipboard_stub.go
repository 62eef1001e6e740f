//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

func WriteText(string) error {
	return ErrUnsupported
}

