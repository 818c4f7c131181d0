package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"beercompass.app/internal/appconf"
)

func TestBlankKeyIsInvalid(t *testing.T) {
	app := &Application{
		Config: appconf.Config{
			ApiKeys: []string{"key"},
		},
	}
	assert.True(t, app.IsInvalidAPIKey(""))
}

func TestConfiguredKeysAreValid(t *testing.T) {
	app := &Application{
		Config: appconf.Config{
			ApiKeys: []string{"alpha", "beta"},
		},
	}

	assert.False(t, app.IsInvalidAPIKey("alpha"))
	assert.False(t, app.IsInvalidAPIKey("beta"))
	assert.True(t, app.IsInvalidAPIKey("gamma"))
}

func TestRequestHasInvalidAPIKey(t *testing.T) {
	app := &Application{
		Config: appconf.Config{
			ApiKeys: []string{"TEST"},
		},
	}

	valid := httptest.NewRequest("GET", "/api/compass/dataset.json?key=TEST", nil)
	assert.False(t, app.RequestHasInvalidAPIKey(valid))

	missing := httptest.NewRequest("GET", "/api/compass/dataset.json", nil)
	assert.True(t, app.RequestHasInvalidAPIKey(missing))

	wrong := httptest.NewRequest("GET", "/api/compass/dataset.json?key=nope", nil)
	assert.True(t, app.RequestHasInvalidAPIKey(wrong))
}
