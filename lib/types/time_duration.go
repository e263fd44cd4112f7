package types

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

type TimeDuration time.Duration

func (t *TimeDuration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var duration string
	err := unmarshal(&duration)
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return err
	}
	*t = TimeDuration(d)
	return nil
}

func (t TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(t).String(), nil
}

func (t TimeDuration) String() string {
	return time.Duration(t).String()
}

var timeDurationType = reflect.TypeOf(TimeDuration(0))

// TimeDurationHookFunc decodes "1m30s" style strings into TimeDuration.
func TimeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != timeDurationType || from.Kind() != reflect.String {
			return data, nil
		}
		d, err := time.ParseDuration(reflect.ValueOf(data).String())
		if err != nil {
			return nil, err
		}
		return TimeDuration(d), nil
	}
}
