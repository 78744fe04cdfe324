package validator

import (
	"fmt"
	"reflect"
	"strings"

	"trust_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные функции валидации.
func registerCustomRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		// 'is-case-priority': High/Medium/Low в любом регистре
		"is-case-priority": validateCasePriority,
		// 'is-date': календарная дата YYYY-MM-DD
		"is-date": validateDate,
		// 'notblank': строка не пустая после TrimSpace
		"notblank": validateNotBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}

// --- Функции валидации ---
// Пустые значения пропускаем, для этого есть 'required'.

func validateCasePriority(fl validator.FieldLevel) bool {
	value, ok := stringValue(fl)
	if !ok || value == "" {
		return ok
	}
	_, valid := models.ParseCasePriority(value)
	return valid
}

func validateDate(fl validator.FieldLevel) bool {
	value, ok := stringValue(fl)
	if !ok || value == "" {
		return ok
	}
	_, err := models.ParseDate(value)
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	value, ok := stringValue(fl)
	return ok && strings.TrimSpace(value) != ""
}

// stringValue handles both string and *string fields.
func stringValue(fl validator.FieldLevel) (string, bool) {
	field := fl.Field()
	for field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return "", true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return "", false
	}
	return field.String(), true
}
