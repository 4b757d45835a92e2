package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func postValidate(t *testing.T, body string) map[string]any {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{}
	r := gin.New()
	r.POST("/api/validate", h.ValidateInput)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/validate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	return out
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": true,
		"hosts": [
			{"user": {"id": 1, "email": "a@team.test"}},
			{"user": {"id": 2, "email": "b@team.test"}}
		]
	}`)

	if out["valid"] != true {
		t.Errorf("Expected valid input, got %v", out)
	}
}

func TestValidateRejectsDuplicateUserIDs(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": true,
		"hosts": [
			{"user": {"id": 1, "email": "a@team.test"}},
			{"user": {"id": 1, "email": "a@team.test"}}
		]
	}`)

	if out["valid"] != false {
		t.Errorf("Expected duplicate user ids rejected, got %v", out)
	}
}

func TestValidateRejectsMissingEmail(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": true,
		"hosts": [{"user": {"id": 1}}]
	}`)

	if out["valid"] != false {
		t.Errorf("Expected missing email rejected, got %v", out)
	}
}

func TestValidateRejectsUnknownSchedulingType(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "MANAGED"},
		"segmented": true,
		"hosts": [{"user": {"id": 1, "email": "a@team.test"}}]
	}`)

	if out["valid"] != false {
		t.Errorf("Expected unknown scheduling type rejected, got %v", out)
	}
}

func TestValidateChecksFallbackHosts(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": false,
		"fallback_hosts": [
			{"user": {"id": 1, "email": "a@team.test"}},
			{"user": {"id": 1, "email": "a@team.test"}}
		]
	}`)

	if out["valid"] != false {
		t.Errorf("Expected duplicate fallback host ids rejected, got %v", out)
	}

	out = postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": false,
		"fallback_hosts": [{"user": {"id": 1}}]
	}`)

	if out["valid"] != false {
		t.Errorf("Expected fallback host without email rejected, got %v", out)
	}
}

func TestValidateRequiresFallbackListForNonSegmentedEvents(t *testing.T) {
	out := postValidate(t, `{
		"event": {"id": 1, "scheduling_type": "ROUND_ROBIN"},
		"segmented": false
	}`)

	if out["valid"] != false {
		t.Errorf("Expected missing fallback list rejected, got %v", out)
	}
}
