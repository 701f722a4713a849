package service

import "testing"

func TestPurchaseReward(t *testing.T) {
	// Flat payout regardless of order value
	for _, amount := range []int64{0, 1, 999, 100000} {
		if got := PurchaseReward(amount); got != 5 {
			t.Fatalf("PurchaseReward(%d) = %d; want 5", amount, got)
		}
	}
}
