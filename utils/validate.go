package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/webhookx-io/intercom/pkg/errs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var ErrValidation = errors.New("validation failed")

// Validate validates v against its `validate` tags. Field names in the
// returned error follow the msgpack, yaml or json tag of the field.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	validateErr := errs.NewValidateError(ErrValidation)
	t := reflect.ValueOf(v).Type()
	for _, e := range verrs {
		fields := strings.Split(e.StructNamespace(), ".")
		node := validateErr.Fields
		parentT := t
		for i := 1; i < len(fields); i++ {
			f, ok := getField(parentT, fields[i])
			if !ok {
				continue
			}

			name := fieldName(f)
			if i < len(fields)-1 {
				if node[name] == nil {
					node[name] = make(map[string]interface{})
				}
				node = node[name].(map[string]interface{})
			} else {
				node[name] = formatError(e)
			}
			parentT = f.Type
		}
	}
	return validateErr
}

func formatError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "oneof":
		return fmt.Sprintf("invalid value: %v", fe.Value())
	case "eq":
		return fmt.Sprintf("value must be %s", fe.Param())
	case "gt":
		return fmt.Sprintf("value must be > %s", fe.Param())
	case "gte":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	case "min":
		return fmt.Sprintf("length must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("length must be at most %s", fe.Param())
	case "ip":
		return fmt.Sprintf("invalid ip: %v", fe.Value())
	case "http_url":
		return fmt.Sprintf("invalid url: %v", fe.Value())
	}
	return fe.Error()
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"msgpack", "yaml", "json"} {
		if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func getField(t reflect.Type, field string) (reflect.StructField, bool) {
	// strip slice/map index, e.g. "Destinations[0]"
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Map {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	return t.FieldByName(field)
}
