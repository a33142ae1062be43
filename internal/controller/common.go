package controller

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/service"
)

const (
	defaultListLimit   = 10
	defaultSearchLimit = 20

	// userIdHeader carries the authenticated user id; authentication itself
	// is handled upstream of this service.
	userIdHeader = "X-User-Id"
)

type errorResponse struct {
	Reason string            `json:"reason"`
	Fields map[string]string `json:"fields,omitempty"`
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindInvalidState, service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(c echo.Context, err error) error {
	kind := service.KindOf(err)

	resp := errorResponse{Reason: "internal error"}
	var se *service.Error
	if errors.As(err, &se) && kind != service.KindInternal {
		resp.Reason = se.Message
		resp.Fields = se.Fields
	}

	if e := c.JSON(statusForKind(kind), resp); e != nil {
		return e
	}

	return err
}

func requesterId(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(userIdHeader)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s header", userIdHeader)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid uuid", userIdHeader)
	}

	return id, nil
}

func parseUuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid uuid", name)
	}

	return id, nil
}

func paginationFromQuery(c echo.Context, defaultLimit int) *entity.PaginationInput {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	return entity.NewPaginationInput(page, limit, defaultLimit)
}

func getAllErrorMessages(err error) string {
	var builder strings.Builder
	for _, fe := range err.(validator.ValidationErrors) {
		message := fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe))
		builder.WriteString(message)
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	s, i := "", int32(0)
	if fe.Type() == reflect.TypeOf(s) {
		return getMessageForString(fe)
	}

	if fe.Type() == reflect.TypeOf(i) || fe.Type() == reflect.TypeOf(0) {
		return getMessageForNumber(fe)
	}

	if fe.Type() == reflect.TypeOf(0.0) {
		return getMessageForNumber(fe)
	}

	return "incorrect value passed"
}

func getMessageForNumber(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "gt":
		return "should be greater than " + fe.Param()
	}

	return "incorrect value passed"
}

func getMessageForString(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "length should be less or equal than " + fe.Param()
	case "gte", "min":
		return "length should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	case "uuid":
		return "should be a valid uuid"
	}

	return "incorrect value passed"
}
