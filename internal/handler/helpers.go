package handler

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"schoolfood/internal/apierror"
	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is a struct; expose it as a float so min/gt tags work on it.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs the validator tags.
// On false the response is already written.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// dateOr parses an optional YYYY-MM-DD value, falling back to def.
func dateOr(c *gin.Context, s string, def time.Time) (time.Time, bool) {
	if s == "" {
		return def, true
	}
	d, err := service.ParseDate(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid date, expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return d, true
}

// statusFor maps engine errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrInsufficientIngredients):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoStock),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrDuplicateActiveSubscription),
		errors.Is(err, service.ErrNotPaid),
		errors.Is(err, service.ErrSubscriptionUnavailable),
		errors.Is(err, service.ErrMealUnavailable):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPortions),
		errors.Is(err, service.ErrNoRecipe),
		errors.Is(err, service.ErrInvalidMealDate),
		errors.Is(err, service.ErrInvalidMealType),
		errors.Is(err, service.ErrInvalidDrink),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidExpiryDate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err with the status statusFor picks. Internal errors are
// logged and replaced by a generic message.
func writeError(c *gin.Context, err error) {
	var short *service.InsufficientIngredientsError
	if errors.As(err, &short) {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewShortfall(
			err.Error(), short.MealID.String(), short.Portions, shortfallLines(short)))
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		reqID, _ := c.Get(middleware.RequestIDKey)
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Interface("request_id", reqID).
			Msg("request failed")
		c.JSON(status, apierror.New("Internal server error"))
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}

func shortfallLines(e *service.InsufficientIngredientsError) []dto.ShortfallLine {
	out := make([]dto.ShortfallLine, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		out = append(out, dto.ShortfallLine{
			IngredientID: s.IngredientID.String(),
			Name:         s.Name,
			Required:     s.Required,
			Available:    s.Available,
			Shortfall:    s.Shortfall,
			Unit:         s.Unit,
		})
	}
	return out
}
