package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"minishop/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

func TestRespondError_KindMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err        error
		wantStatus int
		wantEC     int
	}{
		{apperr.New(apperr.Invalid, "thiếu"), http.StatusBadRequest, 1},
		{apperr.New(apperr.NotFound, "không thấy"), http.StatusNotFound, 1},
		{apperr.New(apperr.Unauthorized, "chưa đăng nhập"), http.StatusUnauthorized, 1},
		{apperr.New(apperr.Forbidden, "không có quyền"), http.StatusForbidden, 2},
		{apperr.Wrap(apperr.Internal, "Lỗi server", errors.New("db down")), http.StatusInternalServerError, -1},
		{errors.New("untagged"), http.StatusInternalServerError, -1},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)

		if w.Code != tc.wantStatus {
			t.Fatalf("err %v: expected status %d, got %d", tc.err, tc.wantStatus, w.Code)
		}
		var body struct {
			EC int    `json:"EC"`
			EM string `json:"EM"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("parse body: %v", err)
		}
		if body.EC != tc.wantEC {
			t.Fatalf("err %v: expected EC %d, got %d", tc.err, tc.wantEC, body.EC)
		}
		if body.EM == "" {
			t.Fatalf("err %v: empty EM", tc.err)
		}
	}
}

func TestRespondOK_OmitsDTWhenNil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondOK(c, "ok", nil)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if _, ok := body["DT"]; ok {
		t.Fatal("DT should be omitted for nil data")
	}
	if body["EC"].(float64) != 0 || body["EM"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}
