package pricing

import "github.com/go-faster/errors"

var errDeliveryOverflow = errors.Wrap(ErrInvalidOrder, "delivery fee overflows")

// Delivery returns the delivery fee: the zone's base fee plus a packaging
// surcharge per frozen line. VIP customers and empty orders pay nothing.
func (c *Calculator) Delivery(order Order, zone Zone, tier Tier) (Cents, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	if err := zone.Validate(); err != nil {
		return 0, err
	}
	if err := tier.Validate(); err != nil {
		return 0, err
	}
	return c.deliveryOf(order, zone, tier)
}

func (c *Calculator) deliveryOf(order Order, zone Zone, tier Tier) (Cents, error) {
	if len(order.Items) == 0 || tier == TierVIP {
		return 0, nil
	}

	fee := c.rates.DeliveryBase[zone]
	for _, it := range order.Items {
		if it.Kind != KindFrozen {
			continue
		}
		sum, ok := addCents(fee, c.rates.FrozenSurcharge)
		if !ok {
			return 0, errDeliveryOverflow
		}
		fee = sum
	}
	return fee, nil
}
