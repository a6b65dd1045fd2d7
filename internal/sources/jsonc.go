package sources

import (
	"bytes"
	"fmt"

	"github.com/tailscale/hujson"
)

// StripJSONC turns JSON-with-comments into plain JSON: comments become spaces
// and trailing commas are dropped, so decoder offsets still point at the right
// line. Input holding only comments comes back blank.
func StripJSONC(src []byte) ([]byte, error) {
	if isBlank(src) {
		return src, nil
	}
	// hujson wants exactly one value, and a fresh keybindings file may hold
	// nothing but a comment. The array wrapper also gives Standardize its own
	// buffer to rewrite in place.
	wrapped := make([]byte, 0, len(src)+3)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, src...)
	wrapped = append(wrapped, '\n', ']')
	out, err := hujson.Standardize(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	return bytes.TrimSuffix(out[1:], []byte("\n]")), nil
}
