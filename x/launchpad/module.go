package launchpad

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cosmossdk.io/core/appmodule"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/grpc-ecosystem/grpc-gateway/runtime"

	"github.com/openalpha/launchpad/x/launchpad/client/cli"
	"github.com/openalpha/launchpad/x/launchpad/keeper"
	"github.com/openalpha/launchpad/x/launchpad/types"
)

const (
	ModuleName = types.ModuleName
)

var (
	_ module.AppModuleBasic = AppModuleBasic{}
	_ module.HasGenesis     = AppModule{}
	_ appmodule.AppModule   = AppModule{}
)

// AppModuleBasic defines the basic application module for launchpad
type AppModuleBasic struct{}

// Name returns the module's name
func (AppModuleBasic) Name() string {
	return ModuleName
}

// RegisterLegacyAminoCodec registers the module's types on the given LegacyAmino codec
func (AppModuleBasic) RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&types.MsgCreateFactory{}, "launchpad/MsgCreateFactory", nil)
	cdc.RegisterConcrete(&types.MsgLaunch{}, "launchpad/MsgLaunch", nil)
	cdc.RegisterConcrete(&types.MsgCreatePool{}, "launchpad/MsgCreatePool", nil)
	cdc.RegisterConcrete(&types.MsgBuy{}, "launchpad/MsgBuy", nil)
	cdc.RegisterConcrete(&types.MsgSell{}, "launchpad/MsgSell", nil)
	cdc.RegisterConcrete(&types.MsgClaimRoyalties{}, "launchpad/MsgClaimRoyalties", nil)
	cdc.RegisterConcrete(&types.MsgClaimProtocolFees{}, "launchpad/MsgClaimProtocolFees", nil)
	cdc.RegisterConcrete(&types.MsgSetPoolEnabled{}, "launchpad/MsgSetPoolEnabled", nil)
}

// RegisterInterfaces registers the module's interface types
func (AppModuleBasic) RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	types.RegisterInterfaces(registry)
}

// DefaultGenesis returns default genesis state as raw bytes
func (AppModuleBasic) DefaultGenesis(cdc codec.JSONCodec) json.RawMessage {
	bz, err := json.Marshal(types.DefaultGenesis())
	if err != nil {
		panic(err)
	}
	return bz
}

// ValidateGenesis performs genesis state validation
func (AppModuleBasic) ValidateGenesis(cdc codec.JSONCodec, config client.TxEncodingConfig, bz json.RawMessage) error {
	gs, err := decodeGenesis(bz)
	if err != nil {
		return err
	}
	return gs.Validate()
}

// RegisterGRPCGatewayRoutes registers the gRPC Gateway routes for the module.
// Queries are served by the launchpad-api HTTP service instead.
func (AppModuleBasic) RegisterGRPCGatewayRoutes(clientCtx client.Context, mux *runtime.ServeMux) {}

// GetTxCmd returns the root tx command for the module
func (AppModuleBasic) GetTxCmd() *cobra.Command {
	return cli.GetTxCmd()
}

// GetQueryCmd returns the root query command for the module
func (AppModuleBasic) GetQueryCmd() *cobra.Command {
	return cli.GetQueryCmd()
}

func decodeGenesis(bz json.RawMessage) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	if len(bz) == 0 {
		return gs, nil
	}
	if err := json.Unmarshal(bz, gs); err != nil {
		return nil, types.ErrInvalidGenesisState.Wrapf("failed to unmarshal %s genesis state: %v", ModuleName, err)
	}
	return gs, nil
}

// AppModule implements an application module for the launchpad module
type AppModule struct {
	AppModuleBasic
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule object
func NewAppModule(k *keeper.Keeper) AppModule {
	return AppModule{
		AppModuleBasic: AppModuleBasic{},
		keeper:         k,
	}
}

// Name returns the module's name
func (am AppModule) Name() string {
	return ModuleName
}

// InitGenesis loads the module state from raw genesis bytes
func (am AppModule) InitGenesis(ctx sdk.Context, cdc codec.JSONCodec, data json.RawMessage) {
	gs, err := decodeGenesis(data)
	if err != nil {
		panic(err)
	}
	if err := am.keeper.InitGenesis(ctx, *gs); err != nil {
		panic(fmt.Sprintf("failed to init %s genesis: %v", ModuleName, err))
	}
}

// ExportGenesis returns the module state as raw genesis bytes
func (am AppModule) ExportGenesis(ctx sdk.Context, cdc codec.JSONCodec) json.RawMessage {
	bz, err := json.Marshal(am.keeper.ExportGenesis(ctx))
	if err != nil {
		panic(err)
	}
	return bz
}

// RegisterServices registers nothing on the configurator. Messages carry
// no protobuf service descriptors, so the baseapp routers cannot dispatch
// them; the launchpad-api service runs the msg and query servers and the
// tx commands submit to it.
func (am AppModule) RegisterServices(cfg module.Configurator) {}

// IsOnePerModuleType implements the depinject.OnePerModuleType interface
func (am AppModule) IsOnePerModuleType() {}

// IsAppModule implements the appmodule.AppModule interface
func (am AppModule) IsAppModule() {}
