package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/hausnet/knxnetip/address"
	"github.com/hausnet/knxnetip/cache"
	"github.com/hausnet/knxnetip/internal/infrastructure/config"
	"github.com/hausnet/knxnetip/internal/infrastructure/logging"
	"github.com/hausnet/knxnetip/telegram"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

type stubBus struct {
	ch chan telegram.Telegram
}

func newStubBus() *stubBus {
	return &stubBus{ch: make(chan telegram.Telegram, 4)}
}

func (b *stubBus) Subscribe(_ any) <-chan telegram.Telegram { return b.ch }
func (b *stubBus) Unsubscribe(_ any)                        {}

func testServer(t *testing.T, bus BusClient) *Server {
	t.Helper()

	c, err := cache.New(map[string]string{"1/2/3": "1.001", "1/2/4": "9.001"})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	c.RecordReceive(mustGA(t, "1/2/3"), true, time.Now())

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.MonitorConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    0,
			JWT:     config.JWTConfig{Secret: testJWTSecret},
		},
		Logger:  log,
		Cache:   c,
		Bus:     bus,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func mustGA(t *testing.T, s string) address.GroupAddress {
	t.Helper()
	ga, err := address.ParseGroupAddress(s)
	if err != nil {
		t.Fatalf("ParseGroupAddress(%s): %v", s, err)
	}
	return ga
}

func signTestToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "monitor-client",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGroups_RequiresBearerToken(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGroups_RejectsInvalidToken(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGroups_ListsAllConfiguredAddresses(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Groups []groupSnapshot `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(body.Groups))
	}
}

func TestGetGroup_ReturnsEntry(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/1/2/3", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var snap groupSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Value != true {
		t.Errorf("value = %v, want true", snap.Value)
	}
}

func TestGetGroup_UnconfiguredAddressIsNotFound(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/9/1/9", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestStream_RelaysTelegrams(t *testing.T) {
	bus := newStubBus()
	srv := testServer(t, bus)
	router := srv.buildRouter()

	ts := httptest.NewServer(router)
	defer ts.Close()

	wsURL := "ws" + ts.URL[len("http"):] + "/api/v1/stream"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+signTestToken(t))

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}

	bus.ch <- telegram.Telegram{
		Kind:        telegram.GroupWrite,
		Source:      address.IndividualAddressFromUint16(0x1101),
		Destination: mustGA(t, "1/2/3"),
		Value:       true,
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg telegramMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Destination != "1/2/3" {
		t.Errorf("destination = %q, want 1/2/3", msg.Destination)
	}
	if msg.Value != true {
		t.Errorf("value = %v, want true", msg.Value)
	}
}
