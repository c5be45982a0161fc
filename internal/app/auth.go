package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

const DefaultSecretFile = "admin.secret"

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// AdminSecret verifies the shared admin password. It holds either an
// Argon2id hash or a plaintext secret taken from the environment.
type AdminSecret struct {
	hash  string
	plain []byte
}

// NewHashedSecret returns a secret backed by an Argon2id hash string
func NewHashedSecret(hash string) *AdminSecret {
	return &AdminSecret{hash: hash}
}

// NewPlainSecret returns a secret compared in constant time
func NewPlainSecret(secret string) *AdminSecret {
	return &AdminSecret{plain: []byte(secret)}
}

// Configured reports whether any secret is set
func (a *AdminSecret) Configured() bool {
	return a != nil && (a.hash != "" || len(a.plain) > 0)
}

// Verify checks a submitted password. An unconfigured secret rejects everything.
func (a *AdminSecret) Verify(password string) (bool, error) {
	if !a.Configured() {
		return false, nil
	}
	if a.hash != "" {
		return VerifyPassword(password, a.hash)
	}
	return subtle.ConstantTimeCompare([]byte(password), a.plain) == 1, nil
}

// LoadAdminSecret resolves the admin secret: the hash file wins over the
// plaintext environment secret. A missing hash file is not an error.
func LoadAdminSecret(cfg Config, logger *slog.Logger) (*AdminSecret, error) {
	path := cfg.AdminSecretFile
	if path == "" {
		path = defaultSecretPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		hash := strings.TrimSpace(string(data))
		if !strings.HasPrefix(hash, "$argon2id$") {
			return nil, fmt.Errorf("invalid admin secret file %s (expected an argon2id hash)", path)
		}
		logger.Info("admin secret loaded", "file", path)
		return NewHashedSecret(hash), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read admin secret file: %w", err)
	}

	if cfg.AdminSecret != "" {
		logger.Warn("using plaintext admin secret from environment", "env", DefaultAdminSecretEnv)
		return NewPlainSecret(cfg.AdminSecret), nil
	}

	logger.Warn("no admin secret configured, admin login disabled",
		"expected_file", path,
		"hint", "run: route-reservations hash-password")
	return &AdminSecret{}, nil
}

func defaultSecretPath() string {
	if p := os.Getenv("ADMIN_SECRET_FILE"); p != "" {
		return p
	}
	execPath, err := os.Executable()
	if err != nil {
		return DefaultSecretFile
	}
	return filepath.Join(filepath.Dir(execPath), DefaultSecretFile)
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	var memory, time, threads uint32
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// CreateSecretFile writes the Argon2id hash of password to path (0400)
func CreateSecretFile(path, password string, overwrite bool) error {
	if path == "" {
		path = defaultSecretPath()
	}

	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			fmt.Printf("Secret file already exists: %s\n", path)
			fmt.Print("Overwrite? (y/N): ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return fmt.Errorf("aborted")
			}
		}
		// Read-only files must be removed before rewriting
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing secret file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := os.WriteFile(path, []byte(hash+"\n"), 0400); err != nil {
		return fmt.Errorf("failed to write secret file: %w", err)
	}

	fmt.Printf("✅ Secret file created: %s (mode: 0400 read-only)\n", path)
	return nil
}
