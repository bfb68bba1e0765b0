package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomchat/internal/pkg/errs"
)

func TestBindJSON(t *testing.T) {
	type payload struct {
		Text string `json:"text"`
	}

	cases := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
	}{
		{"valid", "application/json", `{"text":"hi"}`, 0},
		{"charset", "application/json; charset=utf-8", `{"text":"hi"}`, 0},
		{"wrong content type", "text/plain", `{"text":"hi"}`, errs.ErrUnsupportedMediaType},
		{"invalid json", "application/json", `{"text":`, errs.ErrInvalidJSONFormat},
		{"unknown field", "application/json", `{"text":"hi","extra":1}`, errs.ErrInvalidJSONFormat},
		{"trailing data", "application/json", `{"text":"hi"} {"text":"again"}`, errs.ErrExtraContentInBody},
		{"too large", "application/json", `{"text":"` + strings.Repeat("a", int(MaxBodyBytes)) + `"}`, errs.ErrRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			r.Header.Set("Content-Type", tc.contentType)

			var dst payload
			err := BindJSON(httptest.NewRecorder(), r, &dst)

			if tc.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Text != "hi" {
					t.Errorf("expected text hi, got %q", dst.Text)
				}
				return
			}
			if err == nil || err.Code != tc.wantCode {
				t.Errorf("expected code %d, got %v", tc.wantCode, err)
			}
		})
	}
}
