package enums

import "fmt"

// TransactionChannel identifies the provider product used to move funds.
type TransactionChannel string

const (
	TransactionChannelC2B  TransactionChannel = "c2b"
	TransactionChannelLNMO TransactionChannel = "lnmo"
	TransactionChannelB2C  TransactionChannel = "b2c"
	TransactionChannelB2B  TransactionChannel = "b2b"
)

var validTransactionChannels = []TransactionChannel{
	TransactionChannelC2B,
	TransactionChannelLNMO,
	TransactionChannelB2C,
	TransactionChannelB2B,
}

// String implements fmt.Stringer.
func (c TransactionChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c TransactionChannel) IsValid() bool {
	for _, candidate := range validTransactionChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseTransactionChannel converts raw input into a TransactionChannel.
func ParseTransactionChannel(value string) (TransactionChannel, error) {
	for _, candidate := range validTransactionChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction channel %q", value)
}
