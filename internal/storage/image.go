package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// ProofContentType is the content type of normalized proof images.
const ProofContentType = "image/png"

// ProofExt is the file extension of normalized proof images.
const ProofExt = "png"

// NormalizeImage decodes an uploaded proof (png, jpeg or gif) and
// re-encodes it as PNG so stored proofs share one format regardless of
// what the client sent.
func NormalizeImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode proof image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode proof image: %w", err)
	}
	return buf.Bytes(), nil
}

// ProofKey builds the object key for a proof:
// <namespace>/<creatorName>/<ticketNumber>.png
func ProofKey(namespace, creator, ticketNumber string) string {
	return fmt.Sprintf("%s/%s/%s.%s", namespace, creator, ticketNumber, ProofExt)
}
