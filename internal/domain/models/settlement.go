package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SettlementKind enumerates the post-hoc adjustments a purchase bill can carry.
type SettlementKind int

const (
	SettlementNone SettlementKind = iota
	SettlementDeduct
	SettlementAdd
	SettlementSplitInHalf
	SettlementTransferFeeDeduct
)

// Receipt labels as printed on the bill and stored by the backend in the "note" field.
const (
	labelDeduct      = "หัก"
	labelAdd         = "บวก"
	labelSplitInHalf = "หาร 2 คน"
	labelTransferFee = "โอน"
)

// Label returns the receipt label of the kind. SettlementNone has an empty label.
func (k SettlementKind) Label() string {
	switch k {
	case SettlementDeduct:
		return labelDeduct
	case SettlementAdd:
		return labelAdd
	case SettlementSplitInHalf:
		return labelSplitInHalf
	case SettlementTransferFeeDeduct:
		return labelTransferFee
	default:
		return ""
	}
}

// String method for SettlementKind enum
func (k SettlementKind) String() string {
	switch k {
	case SettlementNone:
		return "none"
	case SettlementDeduct:
		return "deduct"
	case SettlementAdd:
		return "add"
	case SettlementSplitInHalf:
		return "split_in_half"
	case SettlementTransferFeeDeduct:
		return "transfer_fee_deduct"
	default:
		return "unknown"
	}
}

// ParseSettlementKind accepts either the receipt label or the String() name.
func ParseSettlementKind(value string) (SettlementKind, error) {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "none":
		return SettlementNone, nil
	case labelDeduct, "deduct":
		return SettlementDeduct, nil
	case labelAdd, "add":
		return SettlementAdd, nil
	case labelSplitInHalf, "split_in_half":
		return SettlementSplitInHalf, nil
	case labelTransferFee, "transfer_fee_deduct":
		return SettlementTransferFeeDeduct, nil
	}
	return SettlementNone, fmt.Errorf("unknown settlement %q", value)
}

// Settlement is the optional adjustment applied to a purchase's gross amount.
// Amount is ignored for SettlementNone and SettlementSplitInHalf.
type Settlement struct {
	Kind   SettlementKind
	Amount decimal.NullDecimal
}

// NoSettlement returns the zero adjustment.
func NoSettlement() Settlement {
	return Settlement{Kind: SettlementNone}
}

// Deduct subtracts amount from the gross.
func Deduct(amount decimal.Decimal) Settlement {
	return Settlement{Kind: SettlementDeduct, Amount: decimal.NewNullDecimal(amount)}
}

// Add adds amount to the gross.
func Add(amount decimal.Decimal) Settlement {
	return Settlement{Kind: SettlementAdd, Amount: decimal.NewNullDecimal(amount)}
}

// SplitInHalf deducts the counterparty's half of the gross.
func SplitInHalf() Settlement {
	return Settlement{Kind: SettlementSplitInHalf}
}

// TransferFeeDeduct subtracts a bank transfer fee from the gross.
func TransferFeeDeduct(amount decimal.Decimal) Settlement {
	return Settlement{Kind: SettlementTransferFeeDeduct, Amount: decimal.NewNullDecimal(amount)}
}
