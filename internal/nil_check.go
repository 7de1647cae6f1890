package internal

import "reflect"

// IsNil 判斷介面值是否為 nil，包含包著 nil 指標的介面（例如未設定的 Sender 或 Recorder）。
func IsNil(i any) bool {
	if i == nil {
		return true
	}
	switch v := reflect.ValueOf(i); v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
