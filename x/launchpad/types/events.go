package types

// Event types
const (
	EventTypeBuy               = "launchpad_buy"
	EventTypeSell              = "launchpad_sell"
	EventTypeClaimRoyalties    = "launchpad_claim_royalties"
	EventTypeClaimProtocolFees = "launchpad_claim_protocol_fees"
	EventTypeLaunch            = "launchpad_launch"
	EventTypeCreateFactory     = "launchpad_create_factory"
	EventTypeCreatePool        = "launchpad_create_pool"
	EventTypePoolEnabled       = "launchpad_pool_enabled"
)

// Event attribute keys
const (
	AttributeKeyPoolID      = "pool_id"
	AttributeKeyFactoryID   = "factory_id"
	AttributeKeyOwner       = "owner"
	AttributeKeyTrader      = "trader"
	AttributeKeyReceiver    = "receiver"
	AttributeKeyAssetA      = "asset_a"
	AttributeKeyAssetB      = "asset_b"
	AttributeKeyAmountIn    = "amount_in"
	AttributeKeyAmountOut   = "amount_out"
	AttributeKeyFeeBps      = "fee_bps"
	AttributeKeyRoyaltyFee  = "royalty_fee"
	AttributeKeyProtocolFee = "protocol_fee"
	AttributeKeyAmount      = "amount"
	AttributeKeyEnabled     = "enabled"
	AttributeKeyTick        = "tick"
)
