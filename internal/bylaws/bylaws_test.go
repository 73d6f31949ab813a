package bylaws

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetAndGetUint(t *testing.T) {
	s := NewStore()

	err := s.SetUint(KeyGlobalSoftCap, big.NewInt(1000))
	require.NoError(t, err)

	v, err := s.GetUint(KeyGlobalSoftCap)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())
}

func TestStore_GetUintCopiesValue(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetUint(KeyGlobalHardCap, big.NewInt(500)))

	v, err := s.GetUint(KeyGlobalHardCap)
	require.NoError(t, err)
	v.SetInt64(9999)

	again, err := s.GetUint(KeyGlobalHardCap)
	require.NoError(t, err)
	assert.Equal(t, int64(500), again.Int64())
}

func TestStore_UnknownKey(t *testing.T) {
	s := NewStore()

	err := s.SetUint(Key("no_such_bylaw"), big.NewInt(1))
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = s.GetUint(Key("no_such_bylaw"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_KindMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetUint(KeyCooldownPeriod, big.NewInt(3600)))

	_, err := s.GetText(KeyCooldownPeriod)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestStore_LockRejectsWrites(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetUint(KeyGlobalSoftCap, big.NewInt(1)))

	s.Lock()
	assert.True(t, s.Locked())

	err := s.SetUint(KeyGlobalHardCap, big.NewInt(2))
	assert.ErrorIs(t, err, ErrLocked)
	err = s.SetText(KeyMilestoneDuration, "x")
	assert.ErrorIs(t, err, ErrLocked)

	// 已有值仍可读
	v, err := s.GetUint(KeyGlobalSoftCap)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())
}

func TestStore_MustUintDefaultsToZero(t *testing.T) {
	s := NewStore()
	assert.Equal(t, int64(0), s.MustUint(KeyCooldownPeriod).Int64())

	require.NoError(t, s.SetUint(KeyCooldownPeriod, big.NewInt(86400)))
	assert.Equal(t, int64(86400), s.MustUint(KeyCooldownPeriod).Int64())
}
