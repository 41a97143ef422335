package settings

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fazecat/tokensentry/Internal/utils/config"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	sealed, err := c.Encrypt("etherscan-secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "etherscan-secret" {
		t.Errorf("value not sealed: %q", sealed)
	}
	again, _ := c.Encrypt("etherscan-secret")
	if again == sealed {
		t.Error("nonce reuse: identical ciphertexts")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "etherscan-secret" {
		t.Errorf("Decrypt = %q", plain)
	}
}

func TestCipher_WrongKeyFails(t *testing.T) {
	c1, _ := NewCipher(testKey())
	c2, _ := NewCipher(base64.StdEncoding.EncodeToString([]byte("abcdef0123456789abcdef0123456789")))

	sealed, _ := c1.Encrypt("value")
	if _, err := c2.Decrypt(sealed); err == nil {
		t.Error("decrypting with another key should fail")
	}
}

func TestNewCipher_Validation(t *testing.T) {
	if c, err := NewCipher(""); c != nil || err != nil {
		t.Errorf("empty key = %v, %v; want nil, nil", c, err)
	}
	if _, err := NewCipher(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("short key accepted")
	}
	if _, err := NewCipher("%%%"); err == nil {
		t.Error("non-base64 key accepted")
	}
}

func TestCipher_NilIsPlaintext(t *testing.T) {
	var c *Cipher
	sealed, err := c.Encrypt("abc")
	if err != nil || sealed != "abc" {
		t.Errorf("Encrypt = %q, %v", sealed, err)
	}
	plain, err := c.Decrypt("abc")
	if err != nil || plain != "abc" {
		t.Errorf("Decrypt = %q, %v", plain, err)
	}
}

func TestMaskSensitiveValue(t *testing.T) {
	tests := map[string]string{
		"":               "Not set",
		"abc":            "****",
		"abcd":           "****",
		"ABCDEFGHIJKLMN": "ABCD****...****",
	}
	for in, want := range tests {
		if got := MaskSensitiveValue(in); got != want {
			t.Errorf("MaskSensitiveValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadProviderKeys_EnvWins(t *testing.T) {
	ctx := context.Background()
	c, _ := NewCipher(testKey())
	store := NewMemoryStore()
	SetSetting(ctx, store, c, KeyExplorerAPIKey, "from-db")
	SetSetting(ctx, store, c, KeyAlpacaKey, "alpaca-db")

	cfg := config.Default()
	cfg.Headlines.AlpacaKey = "alpaca-env"

	LoadProviderKeys(ctx, store, c, cfg)

	if cfg.Providers.Explorer.APIKey != "from-db" {
		t.Errorf("explorer key = %q, want from-db", cfg.Providers.Explorer.APIKey)
	}
	if cfg.Headlines.AlpacaKey != "alpaca-env" {
		t.Errorf("alpaca key = %q, env value should win", cfg.Headlines.AlpacaKey)
	}
	if cfg.Chain.RPCURL != "" {
		t.Errorf("rpc url = %q, want empty", cfg.Chain.RPCURL)
	}
}

func TestHandler_UpdateThenGetMasks(t *testing.T) {
	c, _ := NewCipher(testKey())
	store := NewMemoryStore()
	h := NewHandler(store, c)

	body := `{"api":{"explorerKey":"ETHERSCANKEY123","alpacaKey":""}}`
	rec := httptest.NewRecorder()
	h.HandleUpdateSettings(rec, httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	raw, ok, _ := store.Get(context.Background(), KeyExplorerAPIKey)
	if !ok || raw == "ETHERSCANKEY123" {
		t.Errorf("stored value %q should be encrypted", raw)
	}
	if _, ok, _ := store.Get(context.Background(), KeyAlpacaKey); ok {
		t.Error("empty values must not be stored")
	}

	rec = httptest.NewRecorder()
	h.HandleGetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	var resp SettingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.API[KeyExplorerAPIKey] != "ETHE****...****" {
		t.Errorf("masked explorer key = %q", resp.API[KeyExplorerAPIKey])
	}
	if resp.API[KeyAlpacaKey] != "Not set" {
		t.Errorf("alpaca key = %q", resp.API[KeyAlpacaKey])
	}
}

func TestHandler_BadBody(t *testing.T) {
	h := NewHandler(NewMemoryStore(), nil)
	for _, body := range []string{"not json", "{}"} {
		rec := httptest.NewRecorder()
		h.HandleUpdateSettings(rec, httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q status = %d, want 400", body, rec.Code)
		}
	}
}
