// ABOUTME: Ogg Opus identification header parsing
// ABOUTME: Reads the channel count the decoder interleaves to
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Ogg Opus always decodes at 48 kHz.
const opusRate = 48000

var errNotOpus = errors.New("not an Ogg Opus file")

// opusChannels returns the output channel count from the OpusHead packet on
// the first Ogg page.
func opusChannels(r io.Reader) (int, error) {
	// A first page is a 27-byte header, up to 255 lacing values, then the
	// 19-byte OpusHead packet.
	page := make([]byte, 27+255+19)
	n, err := io.ReadFull(r, page)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("read ogg page: %w", err)
	}
	page = page[:n]
	if !bytes.HasPrefix(page, []byte("OggS")) {
		return 0, errNotOpus
	}
	i := bytes.Index(page, []byte("OpusHead"))
	if i < 0 || i+10 > len(page) {
		return 0, errNotOpus
	}
	ch := int(page[i+9])
	if ch == 0 {
		return 0, fmt.Errorf("%w: zero channels", errNotOpus)
	}
	return ch, nil
}
