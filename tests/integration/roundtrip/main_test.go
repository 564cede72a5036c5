//go:build integration
// +build integration

package roundtrip

import (
	"os"
	"testing"

	"github.com/hashicorp-forge/distributor/tests/integration"
)

// TestMain starts postgres before the tests and stops it after.
func TestMain(m *testing.M) {
	if err := integration.SetupFixtureSuite(); err != nil {
		println("failed to setup integration test fixture:", err.Error())
		os.Exit(1)
	}

	code := m.Run()

	integration.TeardownFixtureSuite()
	os.Exit(code)
}
