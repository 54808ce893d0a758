package encryption

import (
	"fmt"

	"chordbook/internal/config"
)

// NewKeysFromConfig creates a Keys implementation based on the configuration type.
func NewKeysFromConfig(cfg config.EncryptionConfig) (Keys, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeKeys(cfg), nil
	case "test":
		return TestKeys{}, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
