// Package form binds request bodies into typed forms and reports every failing field at once.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/iyhunko/marketplace-items/internal/csrf"
	"github.com/iyhunko/marketplace-items/internal/http/middleware"
)

// CSRFField is the error key used for CSRF failures.
const CSRFField = "csrf_token"

// TokenVerifier checks a CSRF token against the session subject.
type TokenVerifier interface {
	Verify(token, subject string) error
}

// Binder decodes JSON or form bodies, validates them and checks the CSRF cookie.
type Binder struct {
	csrf TokenVerifier
}

var registerValidator sync.Once

// NewBinder creates a Binder. A nil verifier disables the CSRF check.
func NewBinder(verifier TokenVerifier) *Binder {
	registerValidator.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(fieldName)
			_ = v.RegisterValidation("finite", isFinite)
		}
	})
	return &Binder{csrf: verifier}
}

// isFinite rejects NaN and the infinities, which form decoding accepts as floats.
func isFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return true
}

// Bind fills dst from the request and returns Errors when any field or the CSRF token is invalid.
// All problems are collected before returning.
func (b *Binder) Bind(c *gin.Context, dst any) error {
	errs := Errors{}

	if err := c.ShouldBind(dst); err != nil {
		b.collect(c, dst, err, errs)
	}
	b.checkCSRF(c, errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (b *Binder) checkCSRF(c *gin.Context, errs Errors) {
	if b.csrf == nil {
		return
	}
	token, _ := c.Cookie(csrf.CookieName)
	switch err := b.csrf.Verify(token, middleware.SessionSubject(c)); {
	case err == nil:
	case errors.Is(err, csrf.ErrMissingToken):
		errs.Add(CSRFField, "The CSRF token is missing.")
	default:
		errs.Add(CSRFField, "The CSRF token is invalid.")
	}
}

func (b *Binder) collect(c *gin.Context, dst any, err error, errs Errors) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		addValidationErrors(validationErrs, errs)
		return
	}

	// Decoding stopped early. Report what broke, then validate whatever was decoded
	// so the other fields are reported too.
	var typeErr *json.UnmarshalTypeError
	var numErr *strconv.NumError
	switch {
	case errors.Is(err, io.EOF):
	case errors.As(err, &typeErr) && typeErr.Field != "":
		errs.Add(lastSegment(typeErr.Field), typeMessage(typeErr.Type.Kind()))
	case errors.As(err, &numErr):
		addFormTypeErrors(c, dst, errs)
	default:
		errs.Add("form", "The request body could not be read.")
		return
	}

	if vErr := binding.Validator.ValidateStruct(dst); vErr != nil {
		if errors.As(vErr, &validationErrs) {
			for _, fe := range validationErrs {
				if !errs.Has(fe.Field()) {
					errs.Add(fe.Field(), message(fe))
				}
			}
		}
	}
}

func addValidationErrors(validationErrs validator.ValidationErrors, errs Errors) {
	for _, fe := range validationErrs {
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Number must be at most %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Number must be greater than %s.", fe.Param())
	case "url":
		return "Invalid URL."
	case "finite":
		return typeMessage(fe.Kind())
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

func typeMessage(kind reflect.Kind) string {
	switch kind {
	case reflect.Float32, reflect.Float64:
		return "Not a valid float value."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Not a valid integer value."
	case reflect.Bool:
		return "Not a valid boolean value."
	default:
		return "Not a valid value."
	}
}

// addFormTypeErrors finds which form values failed numeric or boolean coercion.
func addFormTypeErrors(c *gin.Context, dst any, errs Errors) {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		raw, ok := c.GetPostForm(name)
		if !ok || raw == "" {
			continue
		}
		var parseErr error
		switch f.Type.Kind() {
		case reflect.Float32, reflect.Float64:
			_, parseErr = strconv.ParseFloat(raw, 64)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			_, parseErr = strconv.ParseInt(raw, 10, 64)
		case reflect.Bool:
			_, parseErr = strconv.ParseBool(raw)
		}
		if parseErr != nil {
			errs.Add(fieldName(f), typeMessage(f.Type.Kind()))
		}
	}
}

// fieldName reports fields by their JSON name.
func fieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
