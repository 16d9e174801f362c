package service

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-vaccination-api/internal/models"
)

// NewValidator returns a validator aware of calendar dates and grade labels.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok && !d.IsZero() {
			return d.String()
		}
		return ""
	}, models.Date{})
	_ = validate.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		_, ok := models.NormalizeGrade(fl.Field().String())
		return ok
	})
	return validate
}

func todayFrom(now func() time.Time) models.Date {
	return models.DateOf(now())
}
