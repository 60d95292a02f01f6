package model

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
