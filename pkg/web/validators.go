package web

import (
	"fmt"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// ParseIDParam reads a positive integer identifier from the route parameter key.
func ParseIDParam(r *http.Request, key string) (int64, error) {
	return parseValidate(r.PathValue(key), key, gt(0))
}

func parseValidate(value, key string, pValidator ParamValidator) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil || !pValidator(intValue) {
		return 0, fmt.Errorf("invalid %s: %s", key, value)
	}
	return intValue, nil
}
