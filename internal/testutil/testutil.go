// Package testutil provides shared skip helpers and assertions for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when
// the named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestOpenAIIntegration(t *testing.T) {
//	    key := testutil.RequireOpenAIKey(t)
//	    ...
//	}
package testutil

import (
	"os"
	"testing"
)

// IntegrationEnv must be set to 1 for tests that call paid provider APIs.
const IntegrationEnv = "TRANSDIV_INTEGRATION"

// RequireIntegration skips the test unless TRANSDIV_INTEGRATION=1.
func RequireIntegration(tb testing.TB) {
	tb.Helper()

	if os.Getenv(IntegrationEnv) != "1" {
		tb.Skipf("provider integration tests disabled; set %s=1 to run", IntegrationEnv)
	}
}

// RequireOpenAIKey skips the test unless integration tests are enabled and
// an OpenAI key is available in OPENAI_API_KEY or
// TRANSDIV_TRANSLATE_OPENAI_API_KEY. It returns the key.
func RequireOpenAIKey(tb testing.TB) string {
	tb.Helper()
	RequireIntegration(tb)

	for _, env := range []string{"TRANSDIV_TRANSLATE_OPENAI_API_KEY", "OPENAI_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	tb.Skip("OpenAI API key not available; set OPENAI_API_KEY")
	return ""
}

// RequireGoogleCredentials skips the test unless integration tests are
// enabled and a readable Google service account file is named by
// GOOGLE_APPLICATION_CREDENTIALS or TRANSDIV_TRANSLATE_GOOGLE_CREDENTIALS_FILE.
// It returns the file path.
func RequireGoogleCredentials(tb testing.TB) string {
	tb.Helper()
	RequireIntegration(tb)

	for _, env := range []string{"TRANSDIV_TRANSLATE_GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		p := os.Getenv(env)
		if p == "" {
			continue
		}
		// #nosec G703 -- Integration tests intentionally accept explicit env-provided local credential paths.
		if _, err := os.Stat(p); err != nil {
			tb.Skipf("Google credentials not found at %s=%q", env, p)
			return ""
		}
		return p
	}

	tb.Skip("Google credentials not available; set GOOGLE_APPLICATION_CREDENTIALS")
	return ""
}
