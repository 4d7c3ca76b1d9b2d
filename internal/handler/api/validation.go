// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/ocms-nav/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so error details match the request.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Partial updates carry Optional fields; validate the value when one
	// was sent and skip the field otherwise.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if o, ok := field.Interface().(model.Optional[string]); ok && o.HasValue() {
			return o.Value
		}
		return nil
	}, model.Optional[string]{})
	return v
}

// validateRequest checks the validate tags of req and returns a
// ValidationFailed error keyed by JSON field path, e.g. "items[1].id".
func validateRequest(req any, message string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return model.ValidationFailed(message, fields)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " entries"
		}
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param() + " characters"
	case "uuid":
		return "must be a UUID"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
