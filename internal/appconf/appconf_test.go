package appconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvFlagToEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		expected Environment
	}{
		{"test flag", "test", Test},
		{"production flag", "production", Production},
		{"prod shorthand", "prod", Production},
		{"development flag", "development", Development},
		{"unknown falls back to development", "staging", Development},
		{"empty falls back to development", "", Development},
		{"case insensitive", "TEST", Test},
		{"surrounding whitespace ignored", "  production  ", Production},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnvFlagToEnvironment(tt.flag))
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	assert.Equal(t, "development", Development.String())
	assert.Equal(t, "test", Test.String())
	assert.Equal(t, "production", Production.String())
}
