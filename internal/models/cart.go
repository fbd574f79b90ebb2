package models

import "sort"

// Cart maps product id to a strictly positive quantity.
type Cart map[uint]int

// Count is the number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, qty := range c {
		if qty > 0 {
			n += qty
		}
	}
	return n
}

// Valid returns the entries with a positive quantity. Carts come back from
// external stores, so readers filter before pricing.
func (c Cart) Valid() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		if qty > 0 {
			out[id] = qty
		}
	}
	return out
}

// ProductIDs returns the cart's product ids in ascending order.
func (c Cart) ProductIDs() []uint {
	ids := make([]uint, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns an independent copy.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}
