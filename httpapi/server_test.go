package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/httpapi"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/memory"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*httptest.Server, *renthouse.RentHouse) {
	t.Helper()

	rh := renthouse.New(memory.New())
	if err := rh.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = rh.Stop() })

	srv := httptest.NewServer(httpapi.NewRouter(rh, httpapi.ServerConfig{JWTSecret: testSecret}))
	t.Cleanup(srv.Close)
	return srv, rh
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, method, url, subject string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, subject))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func listViaAPI(t *testing.T, srv *httptest.Server, owner string) int64 {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/properties", owner, map[string]any{
		"name":            "Sea View Flat",
		"price_per_night": map[string]any{"amount": 4500, "currency": "usd"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("list property: status %d", resp.StatusCode)
	}
	var out struct {
		PropertyID int64 `json:"property_id"`
	}
	decodeInto(t, resp, &out)
	return out.PropertyID
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/properties", "", map[string]any{"name": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", resp.StatusCode)
	}

	// A token signed with the wrong key is rejected.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/properties", bytes.NewBufferString("{}"))
	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"})
	signed, _ := bad.SignedString([]byte("wrong-secret"))
	req.Header.Set("Authorization", "Bearer "+signed)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key: status %d, want 401", resp2.StatusCode)
	}
}

func TestPublicReads(t *testing.T) {
	srv, _ := newTestServer(t)
	propID := listViaAPI(t, srv, "alice")

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/properties/%d", srv.URL, propID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get property: status %d, want 200", resp.StatusCode)
	}
	if rid := resp.Header.Get("X-Request-Id"); rid == "" {
		t.Error("missing X-Request-Id header")
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/properties/42", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown property: status %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/properties/abc", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad path id: status %d, want 400", resp.StatusCode)
	}
}

func TestListPropertiesPaging(t *testing.T) {
	srv, _ := newTestServer(t)
	listViaAPI(t, srv, "alice")
	listViaAPI(t, srv, "bob")

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLen    int
	}{
		{"no paging", "", http.StatusOK, 2},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"offset", "?offset=1", http.StatusOK, 1},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0},
		{"negative limit", "?limit=-1", http.StatusBadRequest, 0},
		{"garbage limit", "?limit=abc", http.StatusBadRequest, 0},
		{"garbage offset", "?offset=1.5", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/properties"+tt.query, "", nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var props []json.RawMessage
			decodeInto(t, resp, &props)
			if len(props) != tt.wantLen {
				t.Errorf("got %d properties, want %d", len(props), tt.wantLen)
			}
		})
	}
}

func TestBookingFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	propID := listViaAPI(t, srv, "alice")

	book := func(subject string, amount int64) *http.Response {
		return doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", subject, map[string]any{
			"property_id": propID,
			"checkin":     100,
			"checkout":    110,
			"amount_sent": map[string]any{"amount": amount, "currency": "usd"},
		})
	}

	if resp := book("bob", 44999); resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("underpayment: status %d, want 402", resp.StatusCode)
	}

	resp := book("bob", 45000)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("exact payment: status %d, want 201", resp.StatusCode)
	}
	var out struct {
		BookingID int64 `json:"booking_id"`
	}
	decodeInto(t, resp, &out)
	if out.BookingID != 1 {
		t.Errorf("booking id: got %d, want 1", out.BookingID)
	}

	if resp := book("carol", 45000); resp.StatusCode != http.StatusConflict {
		t.Errorf("overlapping dates: status %d, want 409", resp.StatusCode)
	}
}

func TestWithdrawFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	propID := listViaAPI(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", "bob", map[string]any{
		"property_id": propID,
		"checkin":     100,
		"checkout":    110,
		"amount_sent": map[string]any{"amount": 45000, "currency": "usd"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("book: status %d", resp.StatusCode)
	}

	withdrawURL := fmt.Sprintf("%s/api/v1/properties/%d/withdrawals", srv.URL, propID)

	if resp := doJSON(t, http.MethodPost, withdrawURL, "mallory", map[string]any{"count": 10}); resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-owner withdraw: status %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, withdrawURL, "alice", map[string]any{"count": 10})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: status %d, want 200", resp.StatusCode)
	}
	var out struct {
		Amount struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"amount"`
	}
	decodeInto(t, resp, &out)
	if out.Amount.Amount != 45000 || out.Amount.Currency != "usd" {
		t.Errorf("withdrawn: got %d %s, want 45000 usd", out.Amount.Amount, out.Amount.Currency)
	}

	// Escrow is drained; a second withdraw conflicts.
	if resp := doJSON(t, http.MethodPost, withdrawURL, "alice", map[string]any{"count": 10}); resp.StatusCode != http.StatusConflict {
		t.Errorf("empty escrow: status %d, want 409", resp.StatusCode)
	}
}
