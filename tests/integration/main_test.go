package integration

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	CleanupSharedMongoContainer()
	os.Exit(code)
}
