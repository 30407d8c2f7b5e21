package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	storecrypto "github.com/patchbay-sh/patchbay/internal/config/store/crypto"
)

// Settings table -------------------------------------------------------------
//
// Dot-delimited hierarchical keys ("api_keys.openai_api_key") shared across
// instances. Secret values are encrypted at rest; reads return plaintext.

// GetSetting looks up a settings path. The boolean reports presence: a
// missing path is a normal outcome, not an error.
func (s *Store) GetSetting(ctx context.Context, path string) (string, bool, error) {
	var (
		value  string
		secret int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, secret FROM settings WHERE path = ?`, path,
	).Scan(&value, &secret)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("config: get setting %q: %w", path, err)
	}

	if storecrypto.IsEncrypted(value) {
		if s.encryptionKey == nil {
			return "", false, fmt.Errorf("config: setting %q is encrypted but no key is loaded", path)
		}
		plain, err := storecrypto.Decrypt(s.encryptionKey, value)
		if err != nil {
			return "", false, fmt.Errorf("config: decrypt setting %q: %w", path, err)
		}
		return plain, true, nil
	}
	return value, true, nil
}

// SaveSetting upserts a single settings entry.
func (s *Store) SaveSetting(ctx context.Context, write SettingWrite) error {
	return s.withWriteTx(ctx, "save setting", func(tx *sql.Tx) error {
		return s.saveSettingsTx(ctx, tx, []SettingWrite{write})
	})
}

// DeleteSetting removes a settings entry. Deleting an absent path is a no-op.
func (s *Store) DeleteSetting(ctx context.Context, path string) error {
	return s.withWriteTx(ctx, "delete setting", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE path = ?`, path); err != nil {
			return fmt.Errorf("config: delete setting %q: %w", path, err)
		}
		return nil
	})
}

// ListSettings returns stored settings, optionally filtered to a path
// prefix ("api_keys." style). Secret values are reported decrypted.
func (s *Store) ListSettings(ctx context.Context, prefix string) ([]Setting, error) {
	query := `SELECT path, value, secret, updated_at FROM settings`
	args := []any{}
	if prefix != "" {
		query += ` WHERE path LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(prefix)+"%")
	}
	query += ` ORDER BY path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("config: list settings: %w", err)
	}

	settings, err := scanList(rows, scanSetting, "config: scan setting", "config: iterate settings")
	if err != nil {
		return nil, err
	}

	for i := range settings {
		if !storecrypto.IsEncrypted(settings[i].Value) {
			continue
		}
		if s.encryptionKey == nil {
			return nil, fmt.Errorf("config: setting %q is encrypted but no key is loaded", settings[i].Path)
		}
		plain, err := storecrypto.Decrypt(s.encryptionKey, settings[i].Value)
		if err != nil {
			return nil, fmt.Errorf("config: decrypt setting %q: %w", settings[i].Path, err)
		}
		settings[i].Value = plain
	}
	return settings, nil
}

// saveSettingsTx upserts settings writes inside an existing transaction so
// instance mutations and their promoted secrets commit or roll back
// together.
func (s *Store) saveSettingsTx(ctx context.Context, tx *sql.Tx, writes []SettingWrite) error {
	if len(writes) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO settings (path, value, secret, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(path) DO UPDATE SET
            value = excluded.value,
            secret = excluded.secret,
            updated_at = CURRENT_TIMESTAMP
    `)
	if err != nil {
		return fmt.Errorf("config: prepare save settings: %w", err)
	}
	defer stmt.Close()

	for _, write := range writes {
		if strings.TrimSpace(write.Path) == "" {
			return Validationf("settings path is required")
		}

		value := write.Value
		if write.Secret {
			if s.encryptionKey == nil {
				return fmt.Errorf("config: save secret setting %q: no encryption key loaded", write.Path)
			}
			sealed, err := storecrypto.Encrypt(s.encryptionKey, value)
			if err != nil {
				return fmt.Errorf("config: encrypt setting %q: %w", write.Path, err)
			}
			value = sealed
		}

		secretFlag := 0
		if write.Secret {
			secretFlag = 1
		}
		if _, err := stmt.ExecContext(ctx, write.Path, value, secretFlag); err != nil {
			return fmt.Errorf("config: exec save setting %q: %w", write.Path, err)
		}
	}
	return nil
}

func scanSetting(scanner rowScanner) (Setting, error) {
	var (
		setting Setting
		secret  int
	)
	if err := scanner.Scan(&setting.Path, &setting.Value, &secret, &setting.UpdatedAt); err != nil {
		return Setting{}, err
	}
	setting.Secret = secret != 0
	return setting, nil
}

// escapeLike escapes LIKE wildcards in a literal prefix. The escape
// character itself must be doubled first or a trailing backslash in the
// prefix would escape whatever follows it.
func escapeLike(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix)
}
