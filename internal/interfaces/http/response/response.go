// internal/interfaces/http/response/response.go
package response

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
	"github.com/sirupsen/logrus"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

const loggerKey = "logger"

var registerTagNames sync.Once

// RegisterValidatorTagNames makes binding errors report json/form field names
func RegisterValidatorTagNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// Success writes a 200 envelope with the given payload fields
func Success(c *gin.Context, message string, fields gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for key, value := range fields {
		body[key] = value
	}
	c.JSON(http.StatusOK, body)
}

// Error maps err to its status and writes the error envelope.
// Uncoded errors become 500s with a generic message and are logged.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	message := meta.PublicMessage
	if typed.Code() != pkgerrors.CodeInternal && typed.Message() != "" {
		message = typed.Message()
	}

	body := gin.H{
		"success": false,
		"message": message,
		"code":    string(typed.Code()),
	}
	if meta.DetailsAllowed && typed.Details() != nil {
		if typed.Code() == pkgerrors.CodeValidation {
			body["errors"] = typed.Details()
		} else {
			body["details"] = typed.Details()
		}
	}

	if meta.HTTPStatus >= http.StatusInternalServerError {
		entryFrom(c).WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}

// SetLogger makes log available to Error for this request
func SetLogger(c *gin.Context, log logrus.FieldLogger) {
	c.Set(loggerKey, log)
}

func entryFrom(c *gin.Context) logrus.FieldLogger {
	if value, ok := c.Get(loggerKey); ok {
		if log, ok := value.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}

// BindingError converts a gin binding failure into a validation error
func BindingError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := make(map[string]string, len(errs))
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "The given data was invalid").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Malformed request body").
		WithDetails(map[string]string{"body": "could not be parsed"})
}

// InvalidReference reports a field naming an id that does not exist
func InvalidReference(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "The given data was invalid").
		WithDetails(map[string]string{field: fmt.Sprintf("The selected %s is invalid.", strings.ReplaceAll(field, "_", " "))})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
