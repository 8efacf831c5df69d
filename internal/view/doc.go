// Package view derives the visible page of coins from the fetched list.
//
// Compute runs search, category filter, sort and pagination in that order.
// It holds no state and never mutates its input, so callers may recompute on
// every parameter change.
package view
