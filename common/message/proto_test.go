package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecode(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{"tileCount": 4.0, "kind": "tiled"})
	require.NoError(t, err)
	data, err := Encode(in)
	require.NoError(t, err)

	out := &structpb.Struct{}
	require.NoError(t, Decode(data, out))
	assert.True(t, proto.Equal(in, out))
}

func TestDecodeError(t *testing.T) {
	err := Decode([]byte{0xff, 0xff, 0xff}, &structpb.Struct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message: decode *structpb.Struct")
}
