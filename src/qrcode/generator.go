// Package qrcode renders share codes for a form's public link.
package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 128
	MaxSize     = 1024
)

// FormLink is the respondent URL of a form on the public frontend.
func FormLink(baseURL, uniqueURL string) string {
	return strings.TrimRight(baseURL, "/") + "/form/" + uniqueURL
}

// PNG encodes data as a square PNG of the given size, clamped to
// [MinSize, MaxSize].
func PNG(data string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultSize
	case size < MinSize:
		size = MinSize
	case size > MaxSize:
		size = MaxSize
	}
	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
