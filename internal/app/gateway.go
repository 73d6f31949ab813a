package app

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAlreadyLinked 网关已绑定实体，后续版本需走升级流程
	ErrAlreadyLinked = errors.New("gateway: entity already linked")
	// ErrNoEntity 网关尚未绑定任何实体
	ErrNoEntity = errors.New("gateway: no entity linked")
)

// Gateway 网关
// 记录当前权威的应用实体地址；代码升级的提案与审批流程由治理协作方负责，
// 这里只保留权威指针和初次绑定
type Gateway struct {
	mu      sync.RWMutex
	addr    common.Address
	current *Entity
}

// NewGateway 创建网关
func NewGateway(addr common.Address) *Gateway {
	return &Gateway{addr: addr}
}

// GatewayAddressFor 由实体地址派生网关地址
func GatewayAddressFor(entity common.Address) common.Address {
	return deriveAssetAddress(entity, "GatewayInterface")
}

// Address 网关地址
func (g *Gateway) Address() common.Address {
	return g.addr
}

// RequestCodeUpgrade 初次绑定应用实体
func (g *Gateway) RequestCodeUpgrade(e *Entity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		return ErrAlreadyLinked
	}
	g.current = e
	return nil
}

// GetCurrentApplicationEntity 当前权威实体
func (g *Gateway) GetCurrentApplicationEntity() (*Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return nil, ErrNoEntity
	}
	return g.current, nil
}

// CurrentApplicationEntityAddress 当前权威实体地址
func (g *Gateway) CurrentApplicationEntityAddress() (common.Address, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return common.Address{}, ErrNoEntity
	}
	return g.current.Address(), nil
}
