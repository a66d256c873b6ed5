// Package testing provides test utilities, builders, and fixtures for unit and
// integration tests.
//
// This package centralizes common testing patterns to avoid duplication across
// test files:
//   - ConfigBuilder: fluent builder for creating test configurations
//   - PlatformFixture: pre-configured mock cluster for common scenarios
//
// The package name collides with the standard library, so callers import it
// under an alias:
//
//	ldptest "github.com/anhhoangdev/ldpctl/internal/testing"
//
//	cfg := ldptest.NewConfigBuilder().
//	    WithName("test-platform").
//	    WithConsumer("airflow", "airflow").
//	    Build()
//
//	fixture := ldptest.NewPlatformFixture()
//	mockKube := fixture.HealthyPlatform()
package testing
