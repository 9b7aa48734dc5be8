package rw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	w := NewNavMeshDataBinWriter()
	w.WriteInt8(int8(-3))
	w.WriteInt8(uint8(200))
	w.WriteInt16(int16(-1234))
	w.WriteInt16s([]uint16{1, 65535})
	w.WriteInt32(int32(-7))
	w.WriteInt32(5)
	w.WriteInt32(uint32(0xdeadbeef))
	w.WriteFloat32(float32(1.5))
	w.WriteFloat32s([]float32{-2, 0.25})
	w.WriteBytes([]byte("abc"))
	w.PadZero(2)
	assert.Equal(t, 1+1+2+4+4+4+4+4+8+3+2, w.Size())

	r := NewNavMeshDataBinReader(w.GetWriteBytes())
	assert.EqualValues(t, -3, r.ReadInt8())
	assert.EqualValues(t, 200, r.ReadUInt8())
	assert.EqualValues(t, -1234, r.ReadInt16())
	shorts := make([]uint16, 2)
	r.ReadUInt16s(shorts)
	assert.Equal(t, []uint16{1, 65535}, shorts)
	assert.EqualValues(t, -7, r.ReadInt32())
	assert.EqualValues(t, 5, r.ReadInt32())
	assert.EqualValues(t, uint32(0xdeadbeef), r.ReadUInt32())
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	floats := make([]float32, 2)
	r.ReadFloat32s(floats)
	assert.Equal(t, []float32{-2, 0.25}, floats)
	assert.Equal(t, []byte("abc"), r.ReadBytes(3))
	r.Skip(2)
	require.NoError(t, r.Err())
	assert.Zero(t, r.Size())
}

func TestLittleEndian(t *testing.T) {
	w := NewNavMeshDataBinWriter()
	w.WriteInt32(uint32(0x01020304))
	assert.Equal(t, []byte{4, 3, 2, 1}, w.GetWriteBytes())
}

func TestShortReadIsSticky(t *testing.T) {
	r := NewNavMeshDataBinReader([]byte{1, 0, 0})
	assert.Zero(t, r.ReadUInt32())
	require.ErrorIs(t, r.Err(), ErrShortRead)

	// Later reads keep returning zero values, even ones that would fit.
	assert.Zero(t, r.ReadUInt8())
	assert.Nil(t, r.ReadBytes(1))
	assert.ErrorIs(t, r.Err(), ErrShortRead)

	r = NewNavMeshDataBinReader([]byte{1, 2})
	r.Skip(3)
	assert.ErrorIs(t, r.Err(), ErrShortRead)

	r = NewNavMeshDataBinReader(nil)
	assert.Nil(t, r.ReadBytes(-1))
	assert.ErrorIs(t, r.Err(), ErrShortRead)
}
