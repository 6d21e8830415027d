package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field holds an extracted value or an explicit absence. The zero value is absent.
type Field[T any] struct {
	value T
	ok    bool
}

// Some returns a present field holding v. A present zero value is still present.
func Some[T any](v T) Field[T] {
	return Field[T]{value: v, ok: true}
}

// None returns an absent field. It is equivalent to the zero value.
func None[T any]() Field[T] {
	return Field[T]{}
}

// FromPtr maps nil to absence.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present. An absent field yields the
// zero value of T and false.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.ok
}

func (f Field[T]) IsSet() bool {
	return f.ok
}

func (f Field[T]) Or(fallback T) T {
	if !f.ok {
		return fallback
	}
	return f.value
}

func (f Field[T]) String() string {
	if !f.ok {
		return "<absent>"
	}
	return fmt.Sprint(f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.ok {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = None[T]()
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}
