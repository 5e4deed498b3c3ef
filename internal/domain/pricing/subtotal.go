package pricing

// Subtotal returns the sum of unit prices across all line items.
func (c *Calculator) Subtotal(order Order) (Cents, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	return subtotalOf(order), nil
}

func subtotalOf(order Order) Cents {
	var sum Cents
	for _, it := range order.Items {
		sum += it.UnitPriceCents
	}
	return sum
}

// hotSubtotalOf returns the share of the subtotal coming from taxable items.
func hotSubtotalOf(order Order) Cents {
	var sum Cents
	for _, it := range order.Items {
		if it.Kind == KindHot {
			sum += it.UnitPriceCents
		}
	}
	return sum
}
