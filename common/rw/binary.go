package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrShortRead = errors.New("rw: short read")

// ReaderWriter encodes and decodes the little endian records used by
// tile blobs and export sets. Reads keep the first error and return zero
// values afterwards, so a decoder can check Err once at the end.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewNavMeshDataBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewNavMeshDataBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	if w.rw.Len() < n {
		w.err = fmt.Errorf("%w: need %d bytes, have %d", ErrShortRead, n, w.rw.Len())
		w.rw.Reset()
		return nil
	}
	_, _ = w.rw.Read(w.dataBuf[:n])
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (w *ReaderWriter) ReadInt8() int8 {
	return int8(w.ReadUInt8())
}

func (w *ReaderWriter) ReadUInt8s(value []uint8) {
	if w.err != nil {
		return
	}
	if w.rw.Len() < len(value) {
		w.err = fmt.Errorf("%w: need %d bytes, have %d", ErrShortRead, len(value), w.rw.Len())
		w.rw.Reset()
		return
	}
	_, _ = w.rw.Read(value)
}

func (w *ReaderWriter) ReadUInt16() uint16 {
	b := w.read(2)
	if b == nil {
		return 0
	}
	return w.order.Uint16(b)
}

func (w *ReaderWriter) ReadInt16() int16 {
	return int16(w.ReadUInt16())
}

func (w *ReaderWriter) ReadUInt16s(value []uint16) {
	for i := range value {
		value[i] = w.ReadUInt16()
	}
}

func (w *ReaderWriter) ReadInt16s(value []int16) {
	for i := range value {
		value[i] = w.ReadInt16()
	}
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return w.order.Uint32(b)
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadUInt32s(value []uint32) {
	for i := range value {
		value[i] = w.ReadUInt32()
	}
}

func (w *ReaderWriter) ReadInt32s(value []int32) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadFloat32() float32 {
	return math.Float32frombits(w.ReadUInt32())
}

func (w *ReaderWriter) ReadFloat32s(value []float32) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

// ReadBytes returns a fresh copy of the next n bytes.
func (w *ReaderWriter) ReadBytes(n int) []byte {
	if n < 0 {
		w.err = fmt.Errorf("%w: negative length %d", ErrShortRead, n)
		return nil
	}
	res := make([]byte, n)
	w.ReadUInt8s(res)
	if w.err != nil {
		return nil
	}
	return res
}

func (w *ReaderWriter) WriteInt8(v interface{}) {
	switch value := v.(type) {
	case int8:
		w.rw.WriteByte(byte(value))
	case uint8:
		w.rw.WriteByte(value)
	default:
		panic("not impl")
	}
}

func (w *ReaderWriter) WriteInt8s(v interface{}) {
	switch value := v.(type) {
	case []int8:
		for _, tmp := range value {
			w.WriteInt8(tmp)
		}
	case []uint8:
		w.rw.Write(value)
	default:
		panic("not impl")
	}
}

func (w *ReaderWriter) WriteInt16(v interface{}) {
	switch value := v.(type) {
	case int16:
		w.order.PutUint16(w.dataBuf, uint16(value))
	case uint16:
		w.order.PutUint16(w.dataBuf, value)
	default:
		panic("not impl")
	}
	w.rw.Write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteInt16s(v interface{}) {
	switch value := v.(type) {
	case []int16:
		for _, tmp := range value {
			w.WriteInt16(tmp)
		}
	case []uint16:
		for _, tmp := range value {
			w.WriteInt16(tmp)
		}
	default:
		panic("not impl")
	}
}

func (w *ReaderWriter) WriteInt32(v interface{}) {
	switch value := v.(type) {
	case int32:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case int:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case uint32:
		w.order.PutUint32(w.dataBuf, value)
	default:
		panic("not impl")
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32s(v interface{}) {
	switch value := v.(type) {
	case []int32:
		for _, tmp := range value {
			w.WriteInt32(tmp)
		}
	case []uint32:
		for _, tmp := range value {
			w.WriteInt32(tmp)
		}
	default:
		panic("not impl")
	}
}

func (w *ReaderWriter) WriteFloat32(v interface{}) {
	switch value := v.(type) {
	case float32:
		w.order.PutUint32(w.dataBuf, math.Float32bits(value))
	case float64:
		w.order.PutUint32(w.dataBuf, math.Float32bits(float32(value)))
	default:
		panic("not impl")
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteFloat32s(v []float32) {
	for _, tmp := range v {
		w.WriteFloat32(tmp)
	}
}

func (w *ReaderWriter) WriteBytes(b []byte) {
	w.rw.Write(b)
}

func (w *ReaderWriter) Skip(size int) {
	if w.rw.Len() < size {
		w.err = fmt.Errorf("%w: skip %d bytes, have %d", ErrShortRead, size, w.rw.Len())
		w.rw.Reset()
		return
	}
	w.rw.Next(size)
}

func (w *ReaderWriter) GetWriteBytes() []byte {
	return w.rw.Bytes()
}

func (w *ReaderWriter) PadZero(n int) {
	for i := 0; i < n; i++ {
		w.rw.WriteByte(0)
	}
}

// Size reports the unread (or written) byte count.
func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
