package types

import "encoding/json"

type Config interface {
	Validate() error
	PostProcess() error
}

// JSONList decodes an environment value holding a JSON array
type JSONList[T any] []T

func (l *JSONList[T]) Decode(value string) error {
	return json.Unmarshal([]byte(value), (*[]T)(l))
}
