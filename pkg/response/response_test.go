package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

type envelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestJSONMergesWarningsAndPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(StartKey, time.Now())

	Warn(c, "endDate is before startDate")
	JSON(c, http.StatusOK, gin.H{"ok": true}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 3}, map[string]interface{}{"source": "roster"})

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := decode(t, rec)
	assert.Equal(t, true, body.Data["ok"])
	assert.Equal(t, 3, body.Pagination.TotalCount)
	assert.Equal(t, []interface{}{"endDate is before startDate"}, body.Meta["warnings"])
	assert.Equal(t, "roster", body.Meta["source"])
	assert.Contains(t, body.Meta, "processing_time_ms")
}

func TestErrorCarriesSeverityAndAttaches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, appErrors.ErrNoValidRows)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.SeverityWarning, body.Error.Severity)
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, appErrors.ErrNoValidRows)
}

func TestErrorNormalisesPlainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Abort(c, errors.New("boom"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, decode(t, rec).Meta)
}
