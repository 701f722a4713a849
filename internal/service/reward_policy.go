package service

// PurchaseRewardCoins is the flat coin grant per qualifying referred purchase.
const PurchaseRewardCoins = 5

// PurchaseReward returns the coins granted to a referrer for a referred
// purchase. The order amount is recorded on the reward event but does not
// drive the payout; a percentage-of-order scheme would replace only this
// function.
func PurchaseReward(orderAmount int64) int64 {
	return PurchaseRewardCoins
}
