package testutil

import "testing"

// Given, When, and Then label the phases of a wizard scenario as nested
// subtests, so a failure names the phase it happened in ("Given a profile
// matched by email/When the conflict is accepted/..."). They are plain t.Run
// wrappers, not a framework.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
