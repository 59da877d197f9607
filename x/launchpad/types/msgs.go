package types

import (
	"context"
	"fmt"
	"regexp"

	"cosmossdk.io/math"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/gogoproto/proto"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCreateFactory{},
		&MsgLaunch{},
		&MsgCreatePool{},
		&MsgBuy{},
		&MsgSell{},
		&MsgClaimRoyalties{},
		&MsgClaimProtocolFees{},
		&MsgSetPoolEnabled{},
	)
}

// Message types for launchpad module
const (
	TypeMsgCreateFactory     = "create_factory"
	TypeMsgLaunch            = "launch"
	TypeMsgCreatePool        = "create_pool"
	TypeMsgBuy               = "buy"
	TypeMsgSell              = "sell"
	TypeMsgClaimRoyalties    = "claim_royalties"
	TypeMsgClaimProtocolFees = "claim_protocol_fees"
	TypeMsgSetPoolEnabled    = "set_pool_enabled"
)

var (
	_ proto.Message = &MsgCreateFactory{}
	_ proto.Message = &MsgLaunch{}
	_ proto.Message = &MsgCreatePool{}
	_ proto.Message = &MsgBuy{}
	_ proto.Message = &MsgSell{}
	_ proto.Message = &MsgClaimRoyalties{}
	_ proto.Message = &MsgClaimProtocolFees{}
	_ proto.Message = &MsgSetPoolEnabled{}
)

// MsgServer defines the launchpad module's message service
type MsgServer interface {
	CreateFactory(context.Context, *MsgCreateFactory) (*MsgCreateFactoryResponse, error)
	Launch(context.Context, *MsgLaunch) (*MsgLaunchResponse, error)
	CreatePool(context.Context, *MsgCreatePool) (*MsgCreatePoolResponse, error)
	Buy(context.Context, *MsgBuy) (*MsgSwapResponse, error)
	Sell(context.Context, *MsgSell) (*MsgSwapResponse, error)
	ClaimRoyalties(context.Context, *MsgClaimRoyalties) (*MsgClaimResponse, error)
	ClaimProtocolFees(context.Context, *MsgClaimProtocolFees) (*MsgClaimResponse, error)
	SetPoolEnabled(context.Context, *MsgSetPoolEnabled) (*MsgSetPoolEnabledResponse, error)
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{1,15}$`)

// ParseAmount parses a non-negative integer amount
func ParseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), ErrInsufficientInput.Wrapf("invalid amount %q", s)
	}
	if !IsUint128(v) {
		return math.ZeroInt(), ErrArithmeticOverflow.Wrapf("amount %s is not an unsigned 128-bit value", s)
	}
	return v, nil
}

// ParseOptionalAmount treats an empty string as zero
func ParseOptionalAmount(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	return ParseAmount(s)
}

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return ErrInvalidAddress.Wrapf("%s: %v", field, err)
	}
	return nil
}

func signer(addr string) []sdk.AccAddress {
	acc, _ := sdk.AccAddressFromBech32(addr)
	return []sdk.AccAddress{acc}
}

// ============ MsgCreateFactory ============

// MsgCreateFactory registers a launch template
type MsgCreateFactory struct {
	Creator             string      `json:"creator"`
	FactoryID           string      `json:"factory_id"`
	QuoteAsset          string      `json:"quote_asset"`
	Shift               string      `json:"shift"`
	InitialRealReserveB string      `json:"initial_real_reserve_b"`
	FeeTemplate         FeeSchedule `json:"fee_template"`
	Decimals            uint8       `json:"decimals"`
	MetadataMutable     bool        `json:"metadata_mutable"`
}

func (msg *MsgCreateFactory) Reset() { *msg = MsgCreateFactory{} }
func (msg *MsgCreateFactory) String() string {
	return fmt.Sprintf("MsgCreateFactory{Creator: %s, FactoryID: %s}", msg.Creator, msg.FactoryID)
}
func (msg *MsgCreateFactory) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCreateFactory
func (msg *MsgCreateFactory) XXX_MessageName() string {
	return "launchpad.v1.MsgCreateFactory"
}

// ValidateBasic for MsgCreateFactory
func (msg *MsgCreateFactory) ValidateBasic() error {
	if err := validateAddress("creator", msg.Creator); err != nil {
		return err
	}
	if msg.FactoryID == "" {
		return ErrFactoryNotFound.Wrap("factory id is empty")
	}
	if _, err := ParseAmount(msg.Shift); err != nil {
		return err
	}
	if _, err := ParseAmount(msg.InitialRealReserveB); err != nil {
		return err
	}
	return msg.FeeTemplate.Validate()
}

// GetSigners returns the signer addresses for MsgCreateFactory
func (msg *MsgCreateFactory) GetSigners() []sdk.AccAddress { return signer(msg.Creator) }

// MsgCreateFactoryResponse is the response for MsgCreateFactory
type MsgCreateFactoryResponse struct {
	FactoryID string `json:"factory_id"`
}

// ============ MsgLaunch ============

// MsgLaunch launches a new project asset and its pool from a factory
type MsgLaunch struct {
	Creator      string `json:"creator"`
	FactoryID    string `json:"factory_id"`
	Symbol       string `json:"symbol"`
	DevBuyAmount string `json:"dev_buy_amount,omitempty"`
}

func (msg *MsgLaunch) Reset() { *msg = MsgLaunch{} }
func (msg *MsgLaunch) String() string {
	return fmt.Sprintf("MsgLaunch{Creator: %s, FactoryID: %s, Symbol: %s}", msg.Creator, msg.FactoryID, msg.Symbol)
}
func (msg *MsgLaunch) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgLaunch
func (msg *MsgLaunch) XXX_MessageName() string {
	return "launchpad.v1.MsgLaunch"
}

// ValidateBasic for MsgLaunch
func (msg *MsgLaunch) ValidateBasic() error {
	if err := validateAddress("creator", msg.Creator); err != nil {
		return err
	}
	if msg.FactoryID == "" {
		return ErrFactoryNotFound.Wrap("factory id is empty")
	}
	if !symbolPattern.MatchString(msg.Symbol) {
		return ErrInvalidDenom.Wrapf("invalid symbol %q", msg.Symbol)
	}
	if _, err := ParseOptionalAmount(msg.DevBuyAmount); err != nil {
		return err
	}
	return nil
}

// DevBuy returns the optional dev buy amount
func (msg *MsgLaunch) DevBuy() (*math.Int, error) {
	if msg.DevBuyAmount == "" {
		return nil, nil
	}
	amount, err := ParseAmount(msg.DevBuyAmount)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// GetSigners returns the signer addresses for MsgLaunch
func (msg *MsgLaunch) GetSigners() []sdk.AccAddress { return signer(msg.Creator) }

// MsgLaunchResponse is the response for MsgLaunch
type MsgLaunchResponse struct {
	PoolID    string `json:"pool_id"`
	AssetB    string `json:"asset_b"`
	DevBuyOut string `json:"dev_buy_out,omitempty"`
}

// ============ MsgCreatePool ============

// MsgCreatePool creates a pool directly, without a factory
type MsgCreatePool struct {
	Creator         string      `json:"creator"`
	AssetA          string      `json:"asset_a"`
	AssetB          string      `json:"asset_b"`
	Shift           string      `json:"shift"`
	InitialReserveA string      `json:"initial_reserve_a"`
	InitialReserveB string      `json:"initial_reserve_b"`
	FeeSchedule     FeeSchedule `json:"fee_schedule"`
}

func (msg *MsgCreatePool) Reset() { *msg = MsgCreatePool{} }
func (msg *MsgCreatePool) String() string {
	return fmt.Sprintf("MsgCreatePool{Creator: %s, AssetA: %s, AssetB: %s}", msg.Creator, msg.AssetA, msg.AssetB)
}
func (msg *MsgCreatePool) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgCreatePool
func (msg *MsgCreatePool) XXX_MessageName() string {
	return "launchpad.v1.MsgCreatePool"
}

// ValidateBasic for MsgCreatePool
func (msg *MsgCreatePool) ValidateBasic() error {
	if err := validateAddress("creator", msg.Creator); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.AssetA); err != nil {
		return ErrInvalidDenom.Wrapf("asset a: %v", err)
	}
	if err := sdk.ValidateDenom(msg.AssetB); err != nil {
		return ErrInvalidDenom.Wrapf("asset b: %v", err)
	}
	if msg.AssetA == msg.AssetB {
		return ErrInvalidDenom.Wrap("assets must differ")
	}
	// the denom regex is configurable per chain, so the pool ID separator is checked explicitly
	for _, denom := range []string{msg.AssetA, msg.AssetB} {
		if err := ValidatePoolIDSegment(denom, ErrInvalidDenom); err != nil {
			return err
		}
	}
	for _, s := range []string{msg.Shift, msg.InitialReserveB} {
		if _, err := ParseAmount(s); err != nil {
			return err
		}
	}
	if _, err := ParseOptionalAmount(msg.InitialReserveA); err != nil {
		return err
	}
	return msg.FeeSchedule.Validate()
}

// GetSigners returns the signer addresses for MsgCreatePool
func (msg *MsgCreatePool) GetSigners() []sdk.AccAddress { return signer(msg.Creator) }

// MsgCreatePoolResponse is the response for MsgCreatePool
type MsgCreatePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// ============ MsgBuy / MsgSell ============

// MsgBuy swaps asset A for asset B
type MsgBuy struct {
	Trader        string `json:"trader"`
	PoolID        string `json:"pool_id"`
	AmountAIn     string `json:"amount_a_in"`
	MinAmountBOut string `json:"min_amount_b_out,omitempty"`
}

func (msg *MsgBuy) Reset() { *msg = MsgBuy{} }
func (msg *MsgBuy) String() string {
	return fmt.Sprintf("MsgBuy{Trader: %s, PoolID: %s, AmountAIn: %s}", msg.Trader, msg.PoolID, msg.AmountAIn)
}
func (msg *MsgBuy) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgBuy
func (msg *MsgBuy) XXX_MessageName() string {
	return "launchpad.v1.MsgBuy"
}

// ValidateBasic for MsgBuy
func (msg *MsgBuy) ValidateBasic() error {
	if err := validateAddress("trader", msg.Trader); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound.Wrap("pool id is empty")
	}
	return validateSwapAmounts(msg.AmountAIn, msg.MinAmountBOut)
}

// Amounts parses the input and minimum output
func (msg *MsgBuy) Amounts() (in, minOut math.Int, err error) {
	return parseSwapAmounts(msg.AmountAIn, msg.MinAmountBOut)
}

// GetSigners returns the signer addresses for MsgBuy
func (msg *MsgBuy) GetSigners() []sdk.AccAddress { return signer(msg.Trader) }

// MsgSell swaps asset B for asset A
type MsgSell struct {
	Trader        string `json:"trader"`
	PoolID        string `json:"pool_id"`
	AmountBIn     string `json:"amount_b_in"`
	MinAmountAOut string `json:"min_amount_a_out,omitempty"`
}

func (msg *MsgSell) Reset() { *msg = MsgSell{} }
func (msg *MsgSell) String() string {
	return fmt.Sprintf("MsgSell{Trader: %s, PoolID: %s, AmountBIn: %s}", msg.Trader, msg.PoolID, msg.AmountBIn)
}
func (msg *MsgSell) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgSell
func (msg *MsgSell) XXX_MessageName() string {
	return "launchpad.v1.MsgSell"
}

// ValidateBasic for MsgSell
func (msg *MsgSell) ValidateBasic() error {
	if err := validateAddress("trader", msg.Trader); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound.Wrap("pool id is empty")
	}
	return validateSwapAmounts(msg.AmountBIn, msg.MinAmountAOut)
}

// Amounts parses the input and minimum output
func (msg *MsgSell) Amounts() (in, minOut math.Int, err error) {
	return parseSwapAmounts(msg.AmountBIn, msg.MinAmountAOut)
}

// GetSigners returns the signer addresses for MsgSell
func (msg *MsgSell) GetSigners() []sdk.AccAddress { return signer(msg.Trader) }

func validateSwapAmounts(in, minOut string) error {
	_, _, err := parseSwapAmounts(in, minOut)
	return err
}

func parseSwapAmounts(in, minOut string) (math.Int, math.Int, error) {
	amountIn, err := ParseAmount(in)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if amountIn.IsZero() {
		return math.ZeroInt(), math.ZeroInt(), ErrInsufficientInput.Wrap("amount in must be positive")
	}
	minimum, err := ParseOptionalAmount(minOut)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	return amountIn, minimum, nil
}

// MsgSwapResponse is the response for MsgBuy and MsgSell
type MsgSwapResponse struct {
	ReceiptID   string `json:"receipt_id"`
	AmountOut   string `json:"amount_out"`
	FeeBps      uint16 `json:"fee_bps"`
	RoyaltyFee  uint64 `json:"royalty_fee"`
	ProtocolFee uint64 `json:"protocol_fee"`
	Exempt      bool   `json:"exempt"`
}

// ============ Claims ============

// MsgClaimRoyalties releases accrued royalties to the pool owner
type MsgClaimRoyalties struct {
	Claimant string `json:"claimant"`
	PoolID   string `json:"pool_id"`
	Receiver string `json:"receiver,omitempty"`
}

func (msg *MsgClaimRoyalties) Reset() { *msg = MsgClaimRoyalties{} }
func (msg *MsgClaimRoyalties) String() string {
	return fmt.Sprintf("MsgClaimRoyalties{Claimant: %s, PoolID: %s}", msg.Claimant, msg.PoolID)
}
func (msg *MsgClaimRoyalties) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgClaimRoyalties
func (msg *MsgClaimRoyalties) XXX_MessageName() string {
	return "launchpad.v1.MsgClaimRoyalties"
}

// ValidateBasic for MsgClaimRoyalties
func (msg *MsgClaimRoyalties) ValidateBasic() error {
	return validateClaim(msg.Claimant, msg.PoolID, msg.Receiver)
}

// GetSigners returns the signer addresses for MsgClaimRoyalties
func (msg *MsgClaimRoyalties) GetSigners() []sdk.AccAddress { return signer(msg.Claimant) }

// MsgClaimProtocolFees releases accrued protocol fees to the fee authority
type MsgClaimProtocolFees struct {
	Claimant string `json:"claimant"`
	PoolID   string `json:"pool_id"`
	Receiver string `json:"receiver,omitempty"`
}

func (msg *MsgClaimProtocolFees) Reset() { *msg = MsgClaimProtocolFees{} }
func (msg *MsgClaimProtocolFees) String() string {
	return fmt.Sprintf("MsgClaimProtocolFees{Claimant: %s, PoolID: %s}", msg.Claimant, msg.PoolID)
}
func (msg *MsgClaimProtocolFees) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgClaimProtocolFees
func (msg *MsgClaimProtocolFees) XXX_MessageName() string {
	return "launchpad.v1.MsgClaimProtocolFees"
}

// ValidateBasic for MsgClaimProtocolFees
func (msg *MsgClaimProtocolFees) ValidateBasic() error {
	return validateClaim(msg.Claimant, msg.PoolID, msg.Receiver)
}

// GetSigners returns the signer addresses for MsgClaimProtocolFees
func (msg *MsgClaimProtocolFees) GetSigners() []sdk.AccAddress { return signer(msg.Claimant) }

func validateClaim(claimant, poolID, receiver string) error {
	if err := validateAddress("claimant", claimant); err != nil {
		return err
	}
	if poolID == "" {
		return ErrPoolNotFound.Wrap("pool id is empty")
	}
	if receiver != "" {
		return validateAddress("receiver", receiver)
	}
	return nil
}

// MsgClaimResponse is the response for both claim messages
type MsgClaimResponse struct {
	Receiver string `json:"receiver"`
	Denom    string `json:"denom"`
	Amount   uint64 `json:"amount"`
}

// ============ MsgSetPoolEnabled ============

// MsgSetPoolEnabled enables or disables swaps on a pool
type MsgSetPoolEnabled struct {
	Owner   string `json:"owner"`
	PoolID  string `json:"pool_id"`
	Enabled bool   `json:"enabled"`
}

func (msg *MsgSetPoolEnabled) Reset() { *msg = MsgSetPoolEnabled{} }
func (msg *MsgSetPoolEnabled) String() string {
	return fmt.Sprintf("MsgSetPoolEnabled{Owner: %s, PoolID: %s, Enabled: %t}", msg.Owner, msg.PoolID, msg.Enabled)
}
func (msg *MsgSetPoolEnabled) ProtoMessage() {}

// XXX_MessageName returns the message type URL for MsgSetPoolEnabled
func (msg *MsgSetPoolEnabled) XXX_MessageName() string {
	return "launchpad.v1.MsgSetPoolEnabled"
}

// ValidateBasic for MsgSetPoolEnabled
func (msg *MsgSetPoolEnabled) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound.Wrap("pool id is empty")
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSetPoolEnabled
func (msg *MsgSetPoolEnabled) GetSigners() []sdk.AccAddress { return signer(msg.Owner) }

// MsgSetPoolEnabledResponse is the response for MsgSetPoolEnabled
type MsgSetPoolEnabledResponse struct {
	Enabled bool `json:"enabled"`
}
