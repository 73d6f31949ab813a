package bylaws

import (
	"errors"
	"fmt"
	"math/big"
)

// Key 章程键
// 固定枚举所有已知的章程键，配置加载时校验，避免运行时任意字符串查找
type Key string

const (
	KeyGlobalSoftCap          Key = "funding_global_soft_cap"          // 全局软顶（wei）
	KeyGlobalHardCap          Key = "funding_global_hard_cap"          // 全局硬顶（wei）
	KeyNextPhasePriceIncrease Key = "funding_next_phase_price_increase" // 下一阶段价格涨幅（百分比）
	KeyCooldownPeriod         Key = "funding_cooldown_period"          // 阶段之间的冷却间隔（秒）
	KeyDevelopmentStart       Key = "development_start"                // 开发期开始时间（unix）
	KeyMeetingTimeSetReq      Key = "meeting_time_set_req"             // 里程碑会议时间设置提前量（秒）
	KeyMilestoneDuration      Key = "milestone_duration"               // 单个里程碑时长（秒）
	KeyTokenSupply            Key = "token_supply"                     // 代币总供应量（最小单位）
)

// knownKeys 所有合法的章程键
var knownKeys = map[Key]bool{
	KeyGlobalSoftCap:          true,
	KeyGlobalHardCap:          true,
	KeyNextPhasePriceIncrease: true,
	KeyCooldownPeriod:         true,
	KeyDevelopmentStart:       true,
	KeyMeetingTimeSetReq:      true,
	KeyMilestoneDuration:      true,
	KeyTokenSupply:            true,
}

// Kind 章程值类型
type Kind uint8

const (
	KindUint Kind = iota + 1 // 无符号整数（布尔编码为 0/1）
	KindText                 // 短字符串
)

// Value 带类型标签的章程值
type Value struct {
	Kind Kind
	Uint *big.Int
	Text string
}

var (
	// ErrLocked 章程已锁定，不允许再写入
	ErrLocked = errors.New("bylaws: already locked")
	// ErrUnknownKey 未知的章程键
	ErrUnknownKey = errors.New("bylaws: unknown key")
	// ErrNotFound 章程不存在
	ErrNotFound = errors.New("bylaws: not found")
	// ErrKindMismatch 章程值类型不匹配
	ErrKindMismatch = errors.New("bylaws: value kind mismatch")
)

// Store 章程存储
// 由 ApplicationEntity 持有，各资产只读；写入一次后锁定
type Store struct {
	values map[Key]Value
	locked bool
}

// NewStore 创建章程存储
func NewStore() *Store {
	return &Store{values: make(map[Key]Value)}
}

// SetUint 写入整数章程
func (s *Store) SetUint(key Key, value *big.Int) error {
	if s.locked {
		return ErrLocked
	}
	if !knownKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.values[key] = Value{Kind: KindUint, Uint: new(big.Int).Set(value)}
	return nil
}

// SetText 写入字符串章程
func (s *Store) SetText(key Key, value string) error {
	if s.locked {
		return ErrLocked
	}
	if !knownKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.values[key] = Value{Kind: KindText, Text: value}
	return nil
}

// Lock 锁定章程，之后所有写入失败
func (s *Store) Lock() {
	s.locked = true
}

// Locked 是否已锁定
func (s *Store) Locked() bool {
	return s.locked
}

// GetUint 读取整数章程
func (s *Store) GetUint(key Key) (*big.Int, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if v.Kind != KindUint {
		return nil, fmt.Errorf("%w: %s", ErrKindMismatch, key)
	}
	return new(big.Int).Set(v.Uint), nil
}

// GetText 读取字符串章程
func (s *Store) GetText(key Key) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if v.Kind != KindText {
		return "", fmt.Errorf("%w: %s", ErrKindMismatch, key)
	}
	return v.Text, nil
}

// MustUint 读取整数章程，不存在时返回 0
func (s *Store) MustUint(key Key) *big.Int {
	v, err := s.GetUint(key)
	if err != nil {
		return big.NewInt(0)
	}
	return v
}
