package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

var tagNamesOnce sync.Once

// useJSONNames makes validator report fields by their json names.
func useJSONNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindJSON decodes the body into req and writes a 400 listing every
// violated field on failure. A non-empty summary replaces the top-level
// message.
func bindJSON(c *gin.Context, req any, summary string) bool {
	tagNamesOnce.Do(useJSONNames)

	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		// an empty body is checked like an empty object
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: "body", Message: "Invalid request body",
		}))
		return false
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	verr := domain.NewValidationError(fields...)
	if summary != "" {
		verr = verr.WithMessagef("%s", summary)
	}
	response.Error(c, verr)
	return false
}

// fieldPath drops the struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "email":
		return name + " must be a valid email address"
	}
	return name + " is invalid"
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: name, Message: fmt.Sprintf("Invalid %s", name),
		}))
		return 0, false
	}
	return uint(id), true
}

// uintQuery parses an optional numeric query parameter.
func uintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: name, Message: fmt.Sprintf("Invalid %s", name),
		}))
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// parseDay accepts YYYY-MM-DD or an RFC 3339 timestamp.
func parseDay(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// dateRangeQuery reads startDate and endDate. Both or neither must be set.
func dateRangeQuery(c *gin.Context, loc *time.Location) (from, to *time.Time, ok bool) {
	start, end := c.Query("startDate"), c.Query("endDate")
	if start == "" && end == "" {
		return nil, nil, true
	}
	var fields []domain.FieldError
	s, err := parseDay(start, loc)
	if err != nil {
		fields = append(fields, domain.FieldError{Field: "startDate", Message: "Start date must be in YYYY-MM-DD format"})
	}
	e, err := parseDay(end, loc)
	if err != nil {
		fields = append(fields, domain.FieldError{Field: "endDate", Message: "End date must be in YYYY-MM-DD format"})
	}
	if len(fields) > 0 {
		response.Error(c, domain.NewValidationError(fields...))
		return nil, nil, false
	}
	return &s, &e, true
}

// nullableID tells an explicit null apart from an absent field.
type nullableID struct {
	Set   bool
	Value *uint
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
