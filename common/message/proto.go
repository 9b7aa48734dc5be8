package message

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

func Encode(msg proto.Message) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("message: encode %T: %w", msg, err)
	}
	return data, nil
}

func Decode(data []byte, msg proto.Message) error {
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("message: decode %T: %w", msg, err)
	}
	return nil
}
