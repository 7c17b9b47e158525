// parser.go — JSON decoding of single records and example generation.
package template

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExampleJSON returns a sample template record for gomockup init. Its base
// image is base.png next to the file.
func ExampleJSON() string {
	return `{
  "productId": "tshirt",
  "title": "Classic T-Shirt",
  "basePath": "base.png",
  "placement": {
    "rotation": 0,
    "scale": 0.5
  }
}`
}

// DecodeRecord parses one JSON record.
func DecodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &rec, nil
}

// ParseRecordFile reads a single record from path. A relative BasePath is
// resolved against the file's directory.
func ParseRecordFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	resolveBasePath(rec, dirOf(path))
	return rec, nil
}
