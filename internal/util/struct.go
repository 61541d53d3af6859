package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized checks that no exported field of the given struct
// pointer is nil. Used for the server readiness probe.
func IsStructInitialized(s interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(s))
	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() {
			continue
		}

		switch field.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if field.IsNil() {
				return errors.Errorf("field %q is not initialized", v.Type().Field(i).Name)
			}
		default:
			// value types are always initialized
		}
	}

	return nil
}
