package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testClient returns a Valkey client on DB 15 or skips the test.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// requestWithCookie builds a request carrying the session cookie from a
// recorded response.
func requestWithCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			r.AddCookie(c)
			return r
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	s := NewStore(testClient(t))
	ctx := context.Background()

	data := &Data{
		UserID:      uuid.New(),
		Email:       "cliente@newagro.test",
		DisplayName: "Cliente",
		Role:        "customer",
		TwoFADone:   true,
	}

	rr := httptest.NewRecorder()
	id, err := s.Create(ctx, rr, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(id) != idLength*2 {
		t.Errorf("session id length: %d", len(id))
	}
	if data.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}

	req := requestWithCookie(t, rr)
	got, err := s.Get(ctx, req)
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.UserID != data.UserID || got.Email != data.Email || !got.TwoFADone {
		t.Errorf("round trip: %+v", got)
	}

	// Update replaces the payload under the same id.
	got.TwoFADone = false
	if err := s.Update(ctx, req, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := s.Get(ctx, req)
	if err != nil || again == nil {
		t.Fatalf("Get after update: %v, %v", again, err)
	}
	if again.TwoFADone {
		t.Error("update not applied")
	}

	// Destroy removes the session and expires the cookie.
	out := httptest.NewRecorder()
	if err := s.Destroy(ctx, out, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	gone, err := s.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get after destroy: %v", err)
	}
	if gone != nil {
		t.Error("session survived destroy")
	}
	for _, c := range out.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge != -1 {
			t.Errorf("cookie not expired: MaxAge %d", c.MaxAge)
		}
	}
}

func TestSessionGetWithoutCookie(t *testing.T) {
	s := NewStore(testClient(t))

	got, err := s.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("no cookie must not error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil, got %+v", got)
	}
}

func TestSessionGetUnknownID(t *testing.T) {
	s := NewStore(testClient(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "deadbeef"})

	got, err := s.Get(context.Background(), r)
	if err != nil {
		t.Fatalf("unknown id must not error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil, got %+v", got)
	}
}
