package proxy

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// loadFavicon reads the PNG at path and resizes it to the 64x64 vanilla
// clients expect for a server-list icon (spec.md §6's "favicon path"),
// returning the resized PNG bytes.
func loadFavicon(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("proxy: reading favicon %q: %w", path, err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("proxy: decoding favicon %q: %w", path, err)
	}

	resized := resize.Resize(64, 64, img, resize.Lanczos3)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return nil, fmt.Errorf("proxy: re-encoding favicon %q: %w", path, err)
	}
	return out.Bytes(), nil
}
