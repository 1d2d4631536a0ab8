package storage

import "github.com/pkg/errors"

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// CheckKey accepts keys made of ASCII letters, digits, '-', '_' and '.'
// that do not start with a dot.
func CheckKey(key string) error {
	if key == "" {
		return errors.Wrap(ErrInvalidKey, "key cannot be empty")
	}
	if key[0] == '.' {
		return errors.Wrapf(ErrInvalidKey, "key %q cannot start with a dot", key)
	}
	for _, char := range key {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' || char == '.' {
			continue
		}
		return errors.Wrapf(ErrInvalidKey, "invalid character %q in key", char)
	}
	return nil
}
