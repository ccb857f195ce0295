// Package models defines the record produced by parsing an offering memorandum.
package models

// ExtractionResult holds the key fields pulled from one document.
// Fields the parser could not find are nil and serialize as JSON null.
type ExtractionResult struct {
	PropertyName               *string `json:"property_name"`
	Address                    *string `json:"address"`
	TotalRentableSquareFootage *int    `json:"total_rentable_square_footage"`
}

// Complete reports whether every field was extracted.
func (r *ExtractionResult) Complete() bool {
	return r.PropertyName != nil && r.Address != nil && r.TotalRentableSquareFootage != nil
}
