package enums

import "fmt"

// TransactionAggregator names the upstream payment provider.
type TransactionAggregator string

const (
	TransactionAggregatorMpesaKE   TransactionAggregator = "mpesa_ke"
	TransactionAggregatorPaypalUSD TransactionAggregator = "paypal_usd"
)

var validTransactionAggregators = []TransactionAggregator{
	TransactionAggregatorMpesaKE,
	TransactionAggregatorPaypalUSD,
}

// String implements fmt.Stringer.
func (a TransactionAggregator) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a TransactionAggregator) IsValid() bool {
	for _, candidate := range validTransactionAggregators {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseTransactionAggregator converts raw input into a TransactionAggregator.
func ParseTransactionAggregator(value string) (TransactionAggregator, error) {
	for _, candidate := range validTransactionAggregators {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction aggregator %q", value)
}
