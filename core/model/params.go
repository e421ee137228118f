package model

import (
	"fmt"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// ParamFloat は params[key] を float64 として取り出す。int も受け付ける
func ParamFloat(key string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.NewValidationError(key, "expected a number", value)
	}
}

// ParamInt は params[key] を int として取り出す。整数値の float64 も受け付ける
func ParamInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.NewValidationError(key, "expected an integer", value)
		}
		return int(v), nil
	default:
		return 0, errors.NewValidationError(key, "expected an integer", value)
	}
}

// ParamString は params[key] を string として取り出す
func ParamString(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errors.NewValidationError(key, "expected a string", value)
	}
	return s, nil
}

// UnknownParam は未知のハイパーパラメータ名のエラーを返す
func UnknownParam(modelName, key string) error {
	return errors.NewValidationError(key, fmt.Sprintf("unknown parameter for %s", modelName), key)
}
