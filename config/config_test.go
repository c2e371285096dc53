package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	var c Config
	c.JWT = JWTConfig{SecretKey: "secret", AccessTokenTTL: time.Hour}
	c.Upload = UploadConfig{Dir: "./uploads", MaxFileSize: 10 << 20, AllowedExtensions: []string{"pdf"}}
	return c
}

func TestConfig_Validate(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no secret", func(c *Config) { c.JWT.SecretKey = "" }},
		{"no ttl", func(c *Config) { c.JWT.AccessTokenTTL = 0 }},
		{"no upload dir", func(c *Config) { c.Upload.Dir = "" }},
		{"no size limit", func(c *Config) { c.Upload.MaxFileSize = 0 }},
		{"no extensions", func(c *Config) { c.Upload.AllowedExtensions = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, (&Config{}).IsDevelopment())
	assert.True(t, (&Config{Mode: "development"}).IsDevelopment())
	assert.False(t, (&Config{Mode: "production"}).IsDevelopment())
}
