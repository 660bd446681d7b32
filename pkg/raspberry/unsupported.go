//go:build !linux

package raspberry

// OpenChardev isn't available on this platform.
func OpenChardev(string, int, string) (Line, error) {
	return nil, ErrUnsupported
}

// OpenGpiomem isn't available on this platform.
func OpenGpiomem(int, string) (Line, error) {
	return nil, ErrUnsupported
}
