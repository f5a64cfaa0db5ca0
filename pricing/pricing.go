package pricing

import "github.com/shopspring/decimal"

// Policy holds the rate regime used to derive order totals. It is
// injected rather than hard-coded so alternate regimes are testable.
type Policy struct {
	// TaxRate is applied to the subtotal, e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
	// FreeShipOver waives the shipping fee when the subtotal strictly
	// exceeds it. A subtotal exactly at the threshold still pays.
	FreeShipOver decimal.Decimal
	// ShippingFlat is the flat fee charged below the threshold. It
	// applies to the empty cart too; that matches the storefront's
	// historical behavior and is kept on purpose.
	ShippingFlat decimal.Decimal
}

// Default returns the storefront's standard regime: 8% tax, free
// shipping over $35, $9.99 flat otherwise.
func Default() Policy {
	return Policy{
		TaxRate:      decimal.NewFromFloat(0.08),
		FreeShipOver: decimal.NewFromInt(35),
		ShippingFlat: decimal.NewFromFloat(9.99),
	}
}

// FromRates builds a Policy from plain float configuration values.
func FromRates(taxRate, freeShipOver, shippingFlat float64) Policy {
	return Policy{
		TaxRate:      decimal.NewFromFloat(taxRate),
		FreeShipOver: decimal.NewFromFloat(freeShipOver),
		ShippingFlat: decimal.NewFromFloat(shippingFlat),
	}
}

// Line is the (unit price, quantity) pair the derivation consumes.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

func LineOf(unitPrice float64, quantity int) Line {
	return Line{UnitPrice: decimal.NewFromFloat(unitPrice), Quantity: quantity}
}

type Summary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Quote derives the totals for a set of lines. It is a pure function:
// same lines, same policy, same summary. Tax is rounded to cents;
// Total is always Subtotal + Tax + Shipping.
func (p Policy) Quote(lines []Line) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := p.ShippingFlat
	if subtotal.GreaterThan(p.FreeShipOver) {
		shipping = decimal.Zero
	}

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
