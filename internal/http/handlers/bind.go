package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/geocoder89/authbase/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Binding tags backed by the validation package, so a request rejected at the
// edge carries the same reason the service would have produced.
var rules = map[string]func(string) error{
	"auth_email":      validation.ValidateEmail,
	"strong_password": validation.ValidatePassword,
	"person_name":     validation.ValidateName,
}

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine. Safe
// to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		for tag, fn := range rules {
			fn := fn
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return fn(fl.Field().String()) == nil
			})
		}
	})
}

func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		respond.Fail(ctx, bindError(err, out))
		return false
	}

	return true
}

func bindError(err error, out any) error {
	// the body cap is reported as 413 by apperr.From
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}

	rootType := baseStructType(out)

	var validatorErrors validator.ValidationErrors
	if errors.As(err, &validatorErrors) {
		fields := make([]FieldError, 0, len(validatorErrors))

		for _, fe := range validatorErrors {
			fields = append(fields, FieldError{
				Field:   jsonFieldName(rootType, fe.StructField()),
				Rule:    fe.Tag(),
				Message: fieldMessage(rootType, fe),
			})
		}

		return apperr.Validation(fields[0].Message).WithDetails(gin.H{"fields": fields})
	}

	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required").WithDetails(gin.H{"json": "empty_body"})
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.Validation("Invalid JSON in request body").WithDetails(gin.H{"json": "invalid_json_syntax"})
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := jsonFieldName(rootType, typeError.Field)
		msg := fmt.Sprintf("%s must be of type %s", field, typeError.Type.String())

		return apperr.Validation(msg).WithDetails(gin.H{
			"json":   "invalid_json_type",
			"fields": []FieldError{{Field: field, Rule: "type", Message: msg}},
		})
	}

	return apperr.Validation("Invalid request body").WithCause(err)
}

func fieldMessage(rootType reflect.Type, fe validator.FieldError) string {
	if fn, ok := rules[fe.Tag()]; ok {
		value, _ := fe.Value().(string)
		if err := fn(value); err != nil {
			return err.Error()
		}
	}

	name := jsonFieldName(rootType, fe.StructField())

	switch fe.Tag() {
	case "required":
		return capitalize(name) + " is required"
	default:
		return fmt.Sprintf("%s failed %s validation", capitalize(name), fe.Tag())
	}
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonFieldName(rootType reflect.Type, structField string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)
	if !ok {
		return structField
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
