package web

import (
	"errors"
	"net/http"

	"wealthreactor/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Response is the JSON envelope of every API route
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the machine readable failure carried by Response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned to clients
const (
	CodeInvalidFormat      = "invalid_format"
	CodeInvalidInput       = "invalid_input"
	CodeInvalidWallet      = "invalid_wallet"
	CodeInvalidReferrer    = "invalid_referrer"
	CodeUsernameTaken      = "username_taken"
	CodeWalletInUse        = "wallet_in_use"
	CodeNotFound           = "not_found"
	CodeNotPaid            = "not_paid"
	CodePaymentNotFound    = "payment_not_found"
	CodeUnauthorized       = "unauthorized"
	CodeRateLimited        = "rate_limited"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal_error"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []errorMapping{
	{domain.ErrInvalidFormat, http.StatusBadRequest, CodeInvalidFormat},
	{domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
	{domain.ErrInvalidWallet, http.StatusBadRequest, CodeInvalidWallet},
	{domain.ErrInvalidReferrer, http.StatusBadRequest, CodeInvalidReferrer},
	{domain.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
	{domain.ErrWalletInUse, http.StatusConflict, CodeWalletInUse},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrNotPaid, http.StatusPaymentRequired, CodeNotPaid},
	{domain.ErrPaymentNotFound, http.StatusOK, CodePaymentNotFound},
	{domain.ErrOracleUnreachable, http.StatusOK, CodePaymentNotFound},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, CodeStorageUnavailable},
}

// classify maps an error to its HTTP status, code and client message
func classify(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.err.Error()
		}
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// respondError writes the failure envelope; unmapped errors are logged and hidden
func respondError(c *gin.Context, err error) {
	status, code, message := classify(err)

	fields := log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"code":   code,
		"error":  err,
	}
	switch {
	case status >= http.StatusInternalServerError:
		log.WithFields(fields).Error("Request failed")
	case code == CodeUnauthorized:
		log.WithFields(fields).Warn("Request rejected")
	default:
		log.WithFields(fields).Debug("Request rejected")
	}

	c.JSON(status, Response{Success: false, Error: &APIError{Code: code, Message: message}})
}

// respondErrorWithData writes a failure envelope that still carries a payload
func respondErrorWithData(c *gin.Context, err error, data any) {
	status, code, message := classify(err)
	c.JSON(status, Response{Success: false, Data: data, Error: &APIError{Code: code, Message: message}})
}

func invalidInput(message string) *APIError {
	return &APIError{Code: CodeInvalidInput, Message: message}
}

// abortInvalid rejects a malformed request body or query
func abortInvalid(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Error: invalidInput(message)})
}
