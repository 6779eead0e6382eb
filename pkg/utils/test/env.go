package test

import (
	"fmt"
	"os"
	"testing"
)

// EnvVars holds the values of environment variables required by an
// integration test, e.g. a live backend URL or a Firestore project.
type EnvVars struct {
	vars map[string]string
}

// NewEnvVars skips t unless every key is set.
func NewEnvVars(t *testing.T, keys ...string) EnvVars {
	t.Helper()
	e := EnvVars{
		vars: make(map[string]string, len(keys)),
	}

	for _, key := range keys {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			t.Skipf("skipping integration test because %s is not set", key)
		}
		e.vars[key] = value
	}

	return e
}

func (e EnvVars) Get(key string) string {
	if v, ok := e.vars[key]; ok {
		return v
	}

	panic(fmt.Sprintf("env var %s was not requested by NewEnvVars", key))
}
