package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func IsOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

func EffectivePrice(price float64, saleEnabled bool, salePrice float64) float64 {
	if IsOnSale(price, saleEnabled, salePrice) {
		return salePrice
	}
	return price
}

// LineAmount is unitPrice × count in exact decimal arithmetic.
func LineAmount(unitPrice float64, count int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(count)))
}

func LineTotal(unitPrice float64, count int) float64 {
	return Cents(LineAmount(unitPrice, count))
}

// Cents rounds an amount half away from zero to two places for storage.
func Cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func RoundCents(v float64) float64 {
	return Cents(decimal.NewFromFloat(v))
}

// ValidateSale checks the sale fields of a product as they will be stored.
func ValidateSale(price float64, saleEnabled bool, salePrice float64) error {
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !saleEnabled {
		return nil
	}
	if salePrice <= 0 {
		return fmt.Errorf("salePrice must be greater than 0")
	}
	if salePrice >= price {
		return fmt.Errorf("salePrice must be less than price")
	}
	return nil
}
