package core

import (
	"bufio"
	"bytes"
	"io"
)

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 byte
// order mark. Windows editors add one when saving YAML or CSV as UTF-8.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
