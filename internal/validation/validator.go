// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

// Package validation checks station numbers, parameter codes and request
// structs with go-playground/validator v10 before any network call is made.
//
//	if err := validation.StationParameter(station, code); err != nil {
//	    return err // apierror.KindInvalid
//	}
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/stationlink/internal/apierror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	stationNumberRe = regexp.MustCompile(`^[0-9]{8}$`)
	parameterCodeRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,32}$`)
)

// FieldError is one failed field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects every failed field of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

// Error joins the field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator with the custom tags registered:
//
//	station_number  exactly 8 ASCII digits
//	parameter_code  1-32 characters of [A-Za-z0-9_.-]
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("station_number", func(fl validator.FieldLevel) bool {
			return stationNumberRe.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("parameter_code", func(fl validator.FieldLevel) bool {
			return parameterCodeRe.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct validates s and returns an apierror.KindInvalid error wrapping
// a *RequestValidationError, or nil.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.Wrap(apierror.KindInvalid, err, "validation")
	}

	ve := &RequestValidationError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		ve.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return apierror.Wrap(apierror.KindInvalid, ve, "")
}

// StationNumber checks an 8-digit station number.
func StationNumber(station string) error {
	if err := GetValidator().Var(station, "required,station_number"); err != nil {
		return apierror.Invalid(fmt.Sprintf("station number %q must be 8 digits", station))
	}
	return nil
}

// ParameterCode checks a parameter code.
func ParameterCode(code string) error {
	if err := GetValidator().Var(code, "required,parameter_code"); err != nil {
		return apierror.Invalid(fmt.Sprintf("parameter code %q is not valid", code))
	}
	return nil
}

// StationParameter checks both a station number and a parameter code.
func StationParameter(station, code string) error {
	if err := StationNumber(station); err != nil {
		return err
	}
	return ParameterCode(code)
}

var errorMessageTemplates = map[string]string{
	"required":       "%s is required",
	"station_number": "%s must be an 8-digit station number",
	"parameter_code": "%s must be a valid parameter code",
	"latitude":       "%s must be a valid latitude (-90 to 90)",
	"longitude":      "%s must be a valid longitude (-180 to 180)",
	"numeric":        "%s must be numeric",
}

var errorMessageWithParam = map[string]string{
	"oneof":    "%s must be one of: %s",
	"len":      "%s must be exactly %s characters",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gtefield": "%s must not be before %s",
}

func translateError(fe validator.FieldError) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
