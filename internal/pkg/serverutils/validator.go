package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into a
// fiber 400 with a readable field list.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+strings.Join(fields, ", "))
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
