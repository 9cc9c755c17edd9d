package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rr, http.StatusNotFound, GeneralError(errors.New("student not found"))))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, Response{Status: StatusError, Error: "student not found"}, body)
}

func TestNoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent(rr)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())
}

func TestValidationError(t *testing.T) {
	type body struct {
		Name string `validate:"required"`
		Age  int    `validate:"gte=0"`
		Code string `validate:"len=2"`
	}

	err := validator.New().Struct(body{Age: -1, Code: "abc"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	assert.Equal(t, Response{
		Status: StatusError,
		Error:  "field name is required, field age must be greater than or equal to 0, field code is invalid",
	}, ValidationError(errs))
}
