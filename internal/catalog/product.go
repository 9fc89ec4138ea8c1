package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/swabcity/catalogadmin/internal/imagecodec"
)

// Product is a single catalog record as exchanged with the backend. ID is
// nil until the backend assigns one on creation; it is serialized as an
// explicit JSON null so the wire shape always carries all six fields.
type Product struct {
	ID          *int64  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// DecodedImage returns the raw image bytes carried by the Image payload, or
// nil when the payload is empty, malformed, or not allow-listed. The result
// is recomputed on every call; it is a derived view, never stored state.
func (p Product) DecodedImage() []byte {
	return imagecodec.Default().Decode(p.Image)
}

// HasImage reports whether the Image payload decodes to actual bytes.
func (p Product) HasImage() bool {
	return p.DecodedImage() != nil
}

// DecodeProducts parses a backend list response. A single malformed element
// fails the whole decode; partial lists are never returned.
func DecodeProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}
	return products, nil
}

// EncodeProduct serializes a record for add/update requests.
func EncodeProduct(p Product) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}
	return data, nil
}
