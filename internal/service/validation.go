package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the client-facing messages of a rejected input.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})

	return validate
}

// ValidateStruct checks request against its `validate` tags. Every failing field
// contributes the message from its `errmsg` tag once, in field order.
func ValidateStruct(request any) error {
	err := structValidator().Struct(request)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	requestType := reflect.TypeOf(request)
	for requestType.Kind() == reflect.Pointer {
		requestType = requestType.Elem()
	}

	failed := make(map[string]bool, len(validationErrors))
	for _, fieldError := range validationErrors {
		failed[fieldError.StructField()] = true
	}

	messages := make([]string, 0, len(failed))
	for i := 0; i < requestType.NumField(); i++ {
		field := requestType.Field(i)
		if !failed[field.Name] {
			continue
		}
		message := field.Tag.Get("errmsg")
		if message == "" {
			message = "Invalid " + field.Name
		}
		messages = append(messages, message)
	}

	return NewValidationError(messages...)
}
