package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/onrope-scheduler/internal/application"
)

func TestRequireJWT(t *testing.T) {
	t.Parallel()

	expired := managerClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	withinLeeway := managerClaims()
	withinLeeway.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))

	noExpiry := managerClaims()
	noExpiry.ExpiresAt = nil

	noCompany := managerClaims()
	noCompany.CompanyID = ""

	badRole := managerClaims()
	badRole.Role = "admin"

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantCode int
		wantErr  string
	}{
		{name: "missing token", token: func(*testing.T) string { return "" }, wantCode: http.StatusUnauthorized, wantErr: "AUTH_REQUIRED"},
		{name: "garbage", token: func(*testing.T) string { return "not-a-jwt" }, wantCode: http.StatusUnauthorized, wantErr: "AUTH_INVALID_TOKEN"},
		{
			name:     "wrong secret",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, []byte("other"), managerClaims()) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "HS384 rejected",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS384, testSecret, managerClaims()) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name: "alg none rejected",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, managerClaims())
			},
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "expired",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, testSecret, expired) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "expiry required",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, testSecret, noExpiry) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "company claim required",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, testSecret, noCompany) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "unknown role",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, testSecret, badRole) },
			wantCode: http.StatusUnauthorized,
			wantErr:  "AUTH_INVALID_TOKEN",
		},
		{
			name:     "clock skew tolerated",
			token:    func(t *testing.T) string { return signToken(t, jwt.SigningMethodHS256, testSecret, withinLeeway) },
			wantCode: http.StatusOK,
		},
		{name: "valid", token: managerToken, wantCode: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, _ := newTestRouter(t)
			rec := doRequest(router, http.MethodGet, "/projects", tc.token(t), "")
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			if tc.wantErr == "" {
				return
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.ErrorCode != tc.wantErr {
				t.Fatalf("expected %s, got %s", tc.wantErr, body.ErrorCode)
			}
		})
	}
}

func TestRequireJWTStoresPrincipal(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	claims := managerClaims()
	claims.EmployeeID = "emp-a"
	claims.Role = string(application.RoleRopeAccessTech)

	rec := doRequest(router, http.MethodGet, "/company", signToken(t, jwt.SigningMethodHS256, testSecret, claims), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := application.Principal{UserID: "user-mgr", CompanyID: "co-1", EmployeeID: "emp-a", Role: application.RoleRopeAccessTech}
	if svc.directory.lastPrincipal != want {
		t.Fatalf("unexpected principal %+v", svc.directory.lastPrincipal)
	}
}

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/healthz", "", "", "X-Request-ID", "req-42")
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = doRequest(router, http.MethodGet, "/healthz", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}
