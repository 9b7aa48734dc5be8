package bind

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/gorustyt/navbind/common/message"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// wireValuer lets a type pick its own representation on the wire.
type wireValuer interface {
	wireValue() any
}

func (a *Array[T]) wireValue() any {
	if a == nil {
		return nil
	}
	out := make([]any, len(a.data))
	for i, v := range a.data {
		out[i] = float64(v)
	}
	return out
}

func (r *Ref[T]) wireValue() any {
	if r == nil {
		return nil
	}
	v, err := toWire(reflect.ValueOf(r.Value))
	if err != nil {
		return nil
	}
	return v
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func toWire(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if v.CanInterface() {
		if wv, ok := v.Interface().(wireValuer); ok {
			return wv.wireValue(), nil
		}
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return toWire(v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := range out {
			e, err := toWire(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case reflect.Struct:
		out := map[string]any{}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			e, err := toWire(v.Field(i))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out[lowerFirst(f.Name)] = e
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", v.Kind())
}

// / Converts a result record into a protobuf Struct keyed by lower camel field names.
func ToStruct(result any) (*structpb.Struct, error) {
	w, err := toWire(reflect.ValueOf(result))
	if err != nil {
		return nil, fmt.Errorf("bind: %T: %w", result, err)
	}
	fields, ok := w.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bind: %T is not a record", result)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("bind: %T: %w", result, err)
	}
	return s, nil
}

func ToJSON(result any) ([]byte, error) {
	s, err := ToStruct(result)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// / Binary protobuf encoding of a result record.
func Encode(result any) ([]byte, error) {
	s, err := ToStruct(result)
	if err != nil {
		return nil, err
	}
	return message.Encode(s)
}

func Decode(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := message.Decode(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
