package assert

import "fmt"

// NotNil panics when value is nil, it is meant for catching wiring mistakes in
// constructors, not for validating input.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

func NotEmptyStr(str, name string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be a non-empty string", name))
	}
}
