package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/invoice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type pageQuery struct {
		Top  int `form:"top" binding:"omitempty,min=0,max=1000"`
		Skip int `form:"skip" binding:"omitempty,min=0"`
	}

	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		var q pageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns field details for invalid paging", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test?top=5000&skip=-1", nil)
		req.Header.Set(RequestIDHeader, "req-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Equal(t, "req-7", resp.Error.RequestID)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "top", resp.Error.Details[0].Field)
		assert.Equal(t, "top must not exceed 1000", resp.Error.Details[0].Message)
		assert.Equal(t, "skip", resp.Error.Details[1].Field)
		assert.Equal(t, "skip must not be below 0", resp.Error.Details[1].Message)
	})

	t.Run("passes valid paging", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test?top=10&skip=20", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non validator errors carry no details", func(t *testing.T) {
		resp := FormatValidationErrors(assert.AnError, "req-1")
		require.NotNil(t, resp.Error)
		assert.Empty(t, resp.Error.Details)
	})
}

func TestViolationMessage(t *testing.T) {
	type sample struct {
		ID    string `json:"id" validate:"required"`
		Top   int    `form:"top" validate:"max=2"`
		Skip  int    `validate:"min=5"`
		Email string `validate:"email"`
	}

	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	err := v.Struct(sample{Top: 3, Email: "x"})
	require.Error(t, err)

	got := map[string]string{}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	for _, e := range verrs {
		got[e.Field()] = violationMessage(e)
	}

	assert.Equal(t, "id is required", got["id"])
	assert.Equal(t, "top must not exceed 2", got["top"])
	assert.Equal(t, "Skip must not be below 5", got["Skip"])
	assert.Equal(t, "Email is invalid", got["Email"])
}

func TestHandleValidationError(t *testing.T) {
	type input struct {
		BillingDocument string `json:"BillingDocument" binding:"required"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in input
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	assert.Contains(t, w.Body.String(), "BillingDocument")
}
