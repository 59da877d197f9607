package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrArithmeticOverflow     = errors.Register(ModuleName, 1, "arithmetic overflow")
	ErrDivisionByZero         = errors.Register(ModuleName, 2, "division by zero")
	ErrPoolEmpty              = errors.Register(ModuleName, 3, "pool reserves exhausted")
	ErrPoolDisabled           = errors.Register(ModuleName, 4, "pool is disabled")
	ErrInsufficientOutput     = errors.Register(ModuleName, 5, "output below minimum")
	ErrInsufficientInput      = errors.Register(ModuleName, 6, "insufficient input amount")
	ErrInvalidFeeSchedule     = errors.Register(ModuleName, 7, "invalid fee schedule")
	ErrInvalidInitialReserves = errors.Register(ModuleName, 8, "invalid initial reserves")
	ErrIllegalClaimant        = errors.Register(ModuleName, 9, "caller may not claim these fees")

	// Ledger errors
	ErrPoolNotFound        = errors.Register(ModuleName, 10, "pool not found")
	ErrPoolAlreadyExists   = errors.Register(ModuleName, 11, "pool already exists")
	ErrFactoryNotFound     = errors.Register(ModuleName, 12, "factory not found")
	ErrFactoryExists       = errors.Register(ModuleName, 13, "factory already exists")
	ErrInvariantViolation  = errors.Register(ModuleName, 14, "constant product invariant violated")
	ErrUnauthorized        = errors.Register(ModuleName, 15, "unauthorized")
	ErrInvalidAddress      = errors.Register(ModuleName, 16, "invalid address")
	ErrInvalidDenom        = errors.Register(ModuleName, 17, "invalid denom")
	ErrInvalidGenesisState = errors.Register(ModuleName, 18, "invalid genesis state")
)
