package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateAndLoadKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), KeyFileName)

	created, err := CreateKey(keyPath)
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	if len(created) != KeySize {
		t.Fatalf("key size = %d, want %d", len(created), KeySize)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("stat key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key mode = 0%o, want 0600", perm)
	}

	loaded, err := LoadKey(keyPath)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	if string(loaded) != string(created) {
		t.Error("loaded key differs from created key")
	}
}

func TestLoadKeyMissingFile(t *testing.T) {
	key, err := LoadKey(filepath.Join(t.TempDir(), "absent.key"))
	if err != nil {
		t.Fatalf("missing key file should not error, got %v", err)
	}
	if key != nil {
		t.Error("missing key file should return nil key")
	}
}

func TestLoadKeyWrongSize(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), KeyFileName)
	if err := os.WriteFile(keyPath, []byte("short"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadKey(keyPath); err == nil {
		t.Error("truncated key file should error")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := CreateKey(filepath.Join(t.TempDir(), KeyFileName))
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	sealed, err := Encrypt(key, "sk-123")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, EncPrefix) {
		t.Errorf("sealed value missing prefix: %q", sealed)
	}
	if strings.Contains(sealed, "sk-123") {
		t.Error("plaintext leaked into sealed value")
	}

	plain, err := Decrypt(key, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "sk-123" {
		t.Errorf("decrypted = %q, want sk-123", plain)
	}
}

func TestDecryptPassesThroughPlaintext(t *testing.T) {
	key, _ := CreateKey(filepath.Join(t.TempDir(), KeyFileName))
	plain, err := Decrypt(key, "legacy-plaintext")
	if err != nil {
		t.Fatalf("decrypt plaintext: %v", err)
	}
	if plain != "legacy-plaintext" {
		t.Errorf("plaintext pass-through = %q", plain)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	key1, _ := CreateKey(filepath.Join(dir, "a.key"))
	key2, _ := CreateKey(filepath.Join(dir, "b.key"))

	sealed, err := Encrypt(key1, "secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(key2, sealed); err == nil {
		t.Error("decrypting with the wrong key should fail")
	}
}

func TestDecryptCorruptValue(t *testing.T) {
	key, _ := CreateKey(filepath.Join(t.TempDir(), KeyFileName))
	for _, v := range []string{EncPrefix + "!!!", EncPrefix + "c2hvcnQ="} {
		if _, err := Decrypt(key, v); err == nil {
			t.Errorf("Decrypt(%q) = nil, want error", v)
		}
	}
}
