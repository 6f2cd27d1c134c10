package errors

import (
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"校验失败映射400", CodeValidationFailure, http.StatusBadRequest},
		{"权限不足映射403", CodeAuthorizationFailure, http.StatusForbidden},
		{"未找到映射404", CodeNotFound, http.StatusNotFound},
		{"冲突映射409", CodeConflictState, http.StatusConflict},
		{"未知默认500", CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "msg")
			if err.HTTPStatus != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, tt.want)
			}
		})
	}
}

func TestIsAndGetCode(t *testing.T) {
	err := NotFound("demand", "42")
	if !Is(err, CodeNotFound) {
		t.Error("Is should match CodeNotFound")
	}
	if GetCode(err) != CodeNotFound {
		t.Errorf("GetCode = %s, want NOT_FOUND", GetCode(err))
	}
	if GetCode(nil) != CodeUnknown {
		t.Error("GetCode on nil error should return CodeUnknown")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(CodeInternal, "db down")
	wrapped := Wrap(cause, CodeIndexRace, "retry needed")
	if wrapped.Unwrap() != cause {
		t.Error("Wrap must preserve the cause via Unwrap")
	}
}

func TestValidationErrors(t *testing.T) {
	var ve ValidationErrors
	if ve.HasErrors() {
		t.Error("empty ValidationErrors should report no errors")
	}
	ve.Add("date", "invalid format")
	if !ve.HasErrors() {
		t.Error("expected HasErrors to be true after Add")
	}
	app := ve.ToAppError()
	if app.Code != CodeValidationFailure {
		t.Errorf("ToAppError code = %s, want VALIDATION_FAILURE", app.Code)
	}
}
