package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FirebaseConfig is the web-console configuration record of a Firebase app.
// Values are opaque credentials; only their presence is checked here.
type FirebaseConfig struct {
	APIKey            string `json:"apiKey" yaml:"apiKey"`
	AuthDomain        string `json:"authDomain" yaml:"authDomain"`
	ProjectID         string `json:"projectId" yaml:"projectId"`
	StorageBucket     string `json:"storageBucket" yaml:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId" yaml:"messagingSenderId"`
	AppID             string `json:"appId" yaml:"appId"`
}

// Field is one key of the record, named as in the web SDK.
type Field struct {
	Key   string
	Value string
}

// Fields returns the record in its canonical key order.
func (c FirebaseConfig) Fields() []Field {
	return []Field{
		{"apiKey", c.APIKey},
		{"authDomain", c.AuthDomain},
		{"projectId", c.ProjectID},
		{"storageBucket", c.StorageBucket},
		{"messagingSenderId", c.MessagingSenderID},
		{"appId", c.AppID},
	}
}

// Missing lists the keys whose values are empty.
func (c FirebaseConfig) Missing() []string {
	var out []string
	for _, f := range c.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			out = append(out, f.Key)
		}
	}
	return out
}

// Validate reports every missing key. Each reported error wraps ErrMissingField.
func (c FirebaseConfig) Validate() error {
	var errs []error
	for _, key := range c.Missing() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingField, key))
	}
	return errors.Join(errs...)
}

// Trim strips surrounding whitespace from every value.
func (c *FirebaseConfig) Trim() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.AuthDomain = strings.TrimSpace(c.AuthDomain)
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.StorageBucket = strings.TrimSpace(c.StorageBucket)
	c.MessagingSenderID = strings.TrimSpace(c.MessagingSenderID)
	c.AppID = strings.TrimSpace(c.AppID)
}

// Merge copies the non-empty values of other over c.
func (c *FirebaseConfig) Merge(other FirebaseConfig) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.APIKey, other.APIKey)
	set(&c.AuthDomain, other.AuthDomain)
	set(&c.ProjectID, other.ProjectID)
	set(&c.StorageBucket, other.StorageBucket)
	set(&c.MessagingSenderID, other.MessagingSenderID)
	set(&c.AppID, other.AppID)
}

// Masked returns a copy that is safe to log.
func (c FirebaseConfig) Masked() FirebaseConfig {
	out := c
	out.APIKey = mask(c.APIKey)
	out.MessagingSenderID = mask(c.MessagingSenderID)
	out.AppID = mask(c.AppID)
	return out
}

// ParseFirebaseConfig decodes the JSON snippet shown in the Firebase console.
// Keys other than the six of the record are ignored.
func ParseFirebaseConfig(data []byte) (FirebaseConfig, error) {
	var c FirebaseConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return FirebaseConfig{}, fmt.Errorf("%w: firebase web config: %v", ErrInvalidConfig, err)
	}
	c.Trim()
	return c, nil
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "***"
	}
	return v[:4] + "***"
}
