package utils

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"order-tracking/internal/logging"
	"order-tracking/internal/models"
)

// CustomValidator adapts validator/v10 to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	validatorOnce sync.Once
	sharedValid   *CustomValidator
)

// GetValidator returns the process-wide validator.
func GetValidator() *CustomValidator {
	validatorOnce.Do(func() {
		sharedValid = &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
	})
	return sharedValid
}

// RespondWithError writes an ErrorResponse with the given status.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Message: message})
}

// RespondWithJSON writes payload as JSON with the given status.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// HandleServiceError maps domain errors to HTTP responses. Unknown errors
// are logged and reported as 500 without details.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidCoordinates):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrCustomerLocationUnknown):
		return RespondWithError(c, http.StatusNotFound, models.ErrCustomerLocationUnknown.Error())
	case errors.Is(err, models.ErrNoActiveShipment):
		return RespondWithError(c, http.StatusNotFound, models.ErrNoActiveShipment.Error())
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	}
	logging.Ctx(c.Request().Context()).Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled service error")
	return RespondWithError(c, http.StatusInternalServerError, "Internal server error")
}

// ExtractUserInfo returns the user id and role stored by the JWT middleware.
// Handlers return the error as is; echo renders it as a 401.
func ExtractUserInfo(c echo.Context) (string, string, error) {
	userID, ok := c.Get("userID").(string)
	if !ok || userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	role, _ := c.Get("userRole").(string)
	return userID, role, nil
}
