package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

var registerOnce sync.Once

// RegisterValidators adds the booking rules to gin's validator engine and
// reports fields by their json/form name.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			utils.ErrorLogger.Error("gin validator engine is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})

		if err := v.RegisterValidation("visit_time", validateVisitTime); err != nil {
			utils.ErrorLogger.Fatalf("Failed to register 'visit_time' validator: %v", err)
		}
		if err := v.RegisterValidation("not_blank", validateNotBlank); err != nil {
			utils.ErrorLogger.Fatalf("Failed to register 'not_blank' validator: %v", err)
		}
	})
}

func validateVisitTime(fl validator.FieldLevel) bool {
	_, _, err := models.ParseVisitTime(fl.Field().String())
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// bindingDetails turns binding failures into a field -> message map.
func bindingDetails(err error) map[string]any {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]any{"body": err.Error()}
	}

	details := make(map[string]any, len(validationErrs))
	for _, fe := range validationErrs {
		message := fe.Error()

		switch fe.Tag() {
		case "required", "not_blank":
			message = "This field is required."
		case "email":
			message = "Enter a valid email address."
		case "min":
			message = fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		case "max":
			message = fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		case "datetime":
			message = "Enter a valid date (YYYY-MM-DD)."
		case "visit_time":
			message = "Enter a valid time (HH:MM)."
		}
		details[fe.Field()] = message
	}
	return details
}

func respondBindingError(c *gin.Context, err error) {
	utils.RespondFailure(c, http.StatusBadRequest, services.CodeValidation, "Invalid request", bindingDetails(err))
}

// respondServiceError maps service errors onto the JSON envelope.
func respondServiceError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	utils.RespondFailure(c, appErr.StatusCode(), appErr.Code, appErr.Message, appErr.Details)
}
