// validator.go — Sanity checks for template records.
package template

import (
	"fmt"
	"math"
	"os"
)

// Validate reports problems with rec. It returns warnings, never fatal errors:
// a record with warnings can still be stored and may resolve later (e.g. once
// its base image is uploaded).
func Validate(rec *Record) []string {
	var warnings []string

	if rec.ProductID == "" {
		warnings = append(warnings, "productId is empty")
	}

	switch {
	case rec.BasePath == "" && rec.VariationID == "":
		warnings = append(warnings, "basePath is empty")
	case rec.BasePath != "":
		if _, err := os.Stat(rec.BasePath); err != nil {
			warnings = append(warnings, fmt.Sprintf("base image %s is not readable: %v", rec.BasePath, err))
		}
	}

	if s := rec.Placement.Scale; s != nil && (*s <= 0 || math.IsNaN(*s) || math.IsInf(*s, 0)) {
		warnings = append(warnings, fmt.Sprintf("placement scale %v is not a positive number and will be ignored", *s))
	}
	if r := rec.Placement.Rotation; r != nil && (math.IsNaN(*r) || math.IsInf(*r, 0)) {
		warnings = append(warnings, "placement rotation is not a finite number")
	}

	return warnings
}
