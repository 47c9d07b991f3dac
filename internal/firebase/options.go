package firebase

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Mica1614/seims-ai-scanner/internal/config"

	"google.golang.org/api/option"
)

// ClientOptions picks credentials for the app:
// inline service account JSON, then a credentials file, then nothing (ADC).
// With FIRESTORE_EMULATOR_HOST set no credentials are used.
func ClientOptions(cfg config.Config) ([]option.ClientOption, error) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}

	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []option.ClientOption{option.WithCredentialsJSON(credentialsJSON(js))}, nil
	}

	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: credentials file: %v", config.ErrInvalidConfig, err)
		}
		return []option.ClientOption{option.WithCredentialsFile(path)}, nil
	}

	return nil, nil
}

// credentialsJSON returns js as is when it is valid JSON. Otherwise literal
// \n sequences, as left behind by some env files, are turned into newlines.
func credentialsJSON(js string) []byte {
	if json.Valid([]byte(js)) {
		return []byte(js)
	}
	return []byte(strings.ReplaceAll(js, `\n`, "\n"))
}
