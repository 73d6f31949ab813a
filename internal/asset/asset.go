package asset

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// OwnershipState 资产归属状态
type OwnershipState uint8

const (
	OwnershipUnowned OwnershipState = iota // 未认领
	OwnershipOwned                         // 已归属
	OwnershipLocked                        // 已锁定，不可再转移
)

var (
	// ErrAlreadyOwned 资产已有归属
	ErrAlreadyOwned = errors.New("asset: already owned")
	// ErrOwnershipLocked 归属已锁定
	ErrOwnershipLocked = errors.New("asset: ownership locked")
	// ErrUnauthorizedCaller 调用方不是资产所有者
	ErrUnauthorizedCaller = errors.New("asset: unauthorized caller")
)

// Ownership 资产归属
// 所有资产共享的归属状态机：Unowned → Owned → Locked
// 所有变更入口通过 RequireOwner 做调用方地址校验，代替锁机制
type Ownership struct {
	state OwnershipState
	name  string
	owner common.Address
}

// SetInitialOwner 设置初始所有者和资产名称，只允许一次
func (o *Ownership) SetInitialOwner(name string, owner common.Address) error {
	if o.state != OwnershipUnowned {
		return ErrAlreadyOwned
	}
	o.name = name
	o.owner = owner
	o.state = OwnershipOwned
	return nil
}

// TransferToNewOwner 转移资产归属，只有当前所有者可调用
func (o *Ownership) TransferToNewOwner(caller, newOwner common.Address) error {
	if o.state == OwnershipLocked {
		return ErrOwnershipLocked
	}
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	o.owner = newOwner
	return nil
}

// LockOwnership 锁定归属，之后不可再转移
func (o *Ownership) LockOwnership(caller common.Address) error {
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	o.state = OwnershipLocked
	return nil
}

// RequireOwner 校验调用方是否为所有者
func (o *Ownership) RequireOwner(caller common.Address) error {
	if o.state == OwnershipUnowned || caller != o.owner {
		return ErrUnauthorizedCaller
	}
	return nil
}

// Owner 当前所有者地址
func (o *Ownership) Owner() common.Address {
	return o.owner
}

// AssetName 资产名称
func (o *Ownership) AssetName() string {
	return o.name
}

// State 当前归属状态
func (o *Ownership) State() OwnershipState {
	return o.state
}
