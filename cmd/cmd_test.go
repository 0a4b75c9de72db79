package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SYNC_TRANSPORT", "none")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Demo(t *testing.T) {
	out, err := runCLI(t, "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "tab-b: Signed in as John Doe <demo@ticketshub.com> (demo-user-1), 0 ticket(s)")
	assert.Contains(t, out, "tab-b: Signed in as John Doe <demo@ticketshub.com> (demo-user-1), 1 ticket(s)")
	assert.Contains(t, out, "tab-a: Signed out")
	assert.Contains(t, out, "tab-b: City: Pune, Maharashtra")
	assert.Contains(t, out, "tab-a: Signed in as guest <guest@example.com>")
}

func TestCLI_LoginOnMemoryBackend(t *testing.T) {
	out, err := runCLI(t, "login", "demo@ticketshub.com", "demo123")

	require.NoError(t, err)
	assert.Equal(t, "Signed in as John Doe <demo@ticketshub.com> (demo-user-1), 0 ticket(s)\n", out)
}

func TestCLI_BookRequiresSignIn(t *testing.T) {
	_, err := runCLI(t, "book", "--title", "Coldplay", "--amount", "3000")

	assert.ErrorIs(t, err, errSignedOut)
}

func TestCLI_BookRejectsBadAmount(t *testing.T) {
	_, err := runCLI(t, "book", "--amount", "lots")

	assert.ErrorContains(t, err, "invalid --amount")
}

func TestCLI_CityShowOnFirstVisit(t *testing.T) {
	out, err := runCLI(t, "city", "show")

	require.NoError(t, err)
	assert.Equal(t, "No city selected\nCity picker: open\n", out)
}

func TestCLI_CitySelect(t *testing.T) {
	out, err := runCLI(t, "city", "select", "Kochi", "Kerala")

	require.NoError(t, err)
	assert.Equal(t, "City: Kochi, Kerala\n", out)
}

func TestCLI_CitySearch(t *testing.T) {
	out, err := runCLI(t, "city", "search", "ch")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chandigarh, Chandigarh", "Chennai, Tamil Nadu", "Kochi, Kerala"}, strings.Split(strings.TrimSpace(out), "\n"))

	out, err = runCLI(t, "city", "search", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "No cities found\n", out)
}

func TestCLI_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"whoami"})

	assert.Error(t, root.ExecuteContext(context.Background()))
}
