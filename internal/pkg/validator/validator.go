package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// family tokens followed by a numeric threshold, e.g. daily_streak_3
var triggerConditionPattern = regexp.MustCompile(`^[a-z]+(_[a-z]+)*_[0-9]+$`)

var tenantPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,62}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("reward_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "coins", "flash_coins", "xp", "streak_freeze", "premium_days":
			return true
		}
		return false
	})

	validate.RegisterValidation("trigger_condition", func(fl validator.FieldLevel) bool {
		return triggerConditionPattern.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("tenant", func(fl validator.FieldLevel) bool {
		return tenantPattern.MatchString(fl.Field().String())
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range fieldErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "reward_type":
			errors[field] = "Invalid reward type. Must be: coins, flash_coins, xp, streak_freeze, or premium_days"
		case "trigger_condition":
			errors[field] = "Invalid trigger condition. Expected <family>_<threshold>, e.g. daily_streak_3"
		case "tenant":
			errors[field] = "Invalid tenant id"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
