package common

import (
	"net/http"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// InvalidDataMessage is the error text for request bodies failing binding or validation
const InvalidDataMessage = "Invalid data"

type GenericEchoValidator struct {
	Validator *validator.Validate
}

func NewGenericEchoValidator() *GenericEchoValidator {
	return &GenericEchoValidator{Validator: validator.New()}
}

// Validate runs the struct's validate tags. The validator error is kept as the internal
// error so it shows up in logs but not in the response.
func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, InvalidDataMessage).SetInternal(err)
	}
	return nil
}
