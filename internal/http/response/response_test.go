package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-9")
	ErrorWithData(c, CodeUnauthorized, "Please log in", gin.H{"redirect": "/login"})

	var resp struct {
		StatusCode int               `json:"status_code"`
		RequestID  string            `json:"request_id"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.StatusCode != CodeUnauthorized || resp.RequestID != "req-9" || resp.Data["redirect"] != "/login" {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
}

func TestSuccessWithPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	SuccessWithPage(c, []int{1, 2}, NewPagination(2, 10, 21))

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.Pagination == nil || resp.Pagination.TotalPage != 3 || resp.RequestID != "" {
		t.Fatalf("unexpected page envelope: %s", w.Body.String())
	}
}

func TestAppErrorSeverity(t *testing.T) {
	cause := errors.New("upstream down")
	if !NewAppError(CodeBadGateway, "Unable to load", cause).Severe() {
		t.Fatalf("502 should be severe")
	}
	appErr := NewAppError(CodeBadRequest, "Invalid", cause)
	if appErr.Severe() || !errors.Is(appErr, cause) {
		t.Fatalf("400 should not be severe and must unwrap")
	}
}
