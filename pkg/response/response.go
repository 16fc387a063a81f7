package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackfolio/ledger-api/internal/ledger"
	"gorm.io/gorm"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes. The ledger-specific codes let API clients tell the
// rejection kinds apart and render a specific message.
const (
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeDuplicateResource    = "DUPLICATE_RESOURCE"
	ErrCodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	ErrCodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	ErrCodePriceNotFound        = "PRICE_NOT_FOUND"
	ErrCodeInvalidPrice         = "INVALID_PRICE"
)

// Handle maps the error to the appropriate response. All ledger rejections
// are recoverable caller-visible outcomes, never 500s.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	var (
		insufficientFunds    *ledger.InsufficientFundsError
		insufficientQuantity *ledger.InsufficientQuantityError
		priceNotFound        *ledger.PriceNotFoundError
		invalidPrice         *ledger.InvalidPriceError
		unknownAccount       *ledger.UnknownAccountError
		unknownInstrument    *ledger.UnknownInstrumentError
	)

	switch {
	case errors.As(err, &insufficientFunds):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInsufficientFunds, err.Error())
	case errors.As(err, &insufficientQuantity):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInsufficientQuantity, err.Error())
	case errors.As(err, &priceNotFound):
		fail(c, http.StatusNotFound, ErrCodePriceNotFound, err.Error())
	case errors.As(err, &invalidPrice):
		fail(c, http.StatusBadRequest, ErrCodeInvalidPrice, err.Error())
	case errors.As(err, &unknownAccount), errors.As(err, &unknownInstrument):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, "Resource already exists")
	default:
		InternalError(c, err.Error())
	}
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	fail(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}
