package types

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Listable accepts either a single value or a list of values.
type Listable[T any] []T

func (l *Listable[T]) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v []T
	err := unmarshal(&v)
	if err == nil {
		*l = v
		return nil
	}
	var singleItem T
	err = unmarshal(&singleItem)
	if err != nil {
		return err
	}
	*l = []T{singleItem}
	return nil
}

func (l Listable[T]) MarshalYAML() (interface{}, error) {
	if len(l) == 1 {
		return l[0], nil
	}
	return ([]T)(l), nil
}

type listable interface {
	listable()
}

func (Listable[T]) listable() {}

var listableType = reflect.TypeOf((*listable)(nil)).Elem()

// ListableHookFunc wraps a scalar into a one-element slice when the
// target is a Listable.
func ListableHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if !to.Implements(listableType) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Slice, reflect.Array:
			return data, nil
		}
		return []any{data}, nil
	}
}
