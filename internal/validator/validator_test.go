package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/talentprobe/talentprobe-backend/internal/response"
)

type bindProbe struct {
	Name string `json:"name" binding:"required,min=2"`
}

func bindRequest(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst bindProbe
	return rec, Bind(c, &dst)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var env struct {
		Error *response.ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Error == nil {
		t.Fatal("response has no error body")
	}
	return *env.Error
}

func TestBindRejectsUndecodableBody(t *testing.T) {
	rec, ok := bindRequest(t, `{"name": `)
	if ok {
		t.Fatal("Bind accepted a truncated body")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errBody := decodeError(t, rec)
	if errBody.Code != response.ErrInvalidPayload {
		t.Fatalf("code = %q, want %q", errBody.Code, response.ErrInvalidPayload)
	}
	if len(errBody.Fields) != 0 {
		t.Fatalf("undecodable body should carry no field detail, got %v", errBody.Fields)
	}
}

func TestBindReportsFieldValidationByJSONName(t *testing.T) {
	rec, ok := bindRequest(t, `{"name": "x"}`)
	if ok {
		t.Fatal("Bind accepted a name below the minimum length")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errBody := decodeError(t, rec)
	if errBody.Code != response.ErrValidation {
		t.Fatalf("code = %q, want %q", errBody.Code, response.ErrValidation)
	}
	if _, found := errBody.Fields["name"]; !found {
		t.Fatalf("fields = %v, want detail under json tag %q", errBody.Fields, "name")
	}
}

func TestBindAcceptsValidBody(t *testing.T) {
	rec, ok := bindRequest(t, `{"name": "Backend Screen"}`)
	if !ok {
		t.Fatalf("Bind rejected a valid body: %s", rec.Body.String())
	}
}
