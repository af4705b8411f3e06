package enums

import "fmt"

// TransactionCategory distinguishes money collected from money paid out.
type TransactionCategory string

const (
	TransactionCategoryPurchaseOrder TransactionCategory = "purchase_order"
	TransactionCategoryPayout        TransactionCategory = "payout"
)

var validTransactionCategories = []TransactionCategory{
	TransactionCategoryPurchaseOrder,
	TransactionCategoryPayout,
}

// String implements fmt.Stringer.
func (c TransactionCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c TransactionCategory) IsValid() bool {
	for _, candidate := range validTransactionCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseTransactionCategory converts raw input into a TransactionCategory.
func ParseTransactionCategory(value string) (TransactionCategory, error) {
	for _, candidate := range validTransactionCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction category %q", value)
}
