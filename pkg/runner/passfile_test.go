package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePassfile(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".sshpass")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestGetPassfilePath_Configured(t *testing.T) {
	path := writePassfile(t, "", 0600)

	got, err := GetPassfilePath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestGetPassfilePath_ConfiguredMissing(t *testing.T) {
	_, err := GetPassfilePath(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestValidatePassfilePermissions(t *testing.T) {
	good := writePassfile(t, "", 0600)
	assert.NoError(t, ValidatePassfilePermissions(good))

	bad := writePassfile(t, "", 0644)
	assert.Error(t, ValidatePassfilePermissions(bad))
}

func TestLookupPassword(t *testing.T) {
	path := writePassfile(t, `# test entries
web1.internal:22:deploy:web1pass
db1.internal:2200:admin:dbpass
*:22:fallback:anyhostpass
web2.internal:*:deploy:anyportpass
`, 0600)

	tests := []struct {
		name      string
		host      string
		port      string
		user      string
		want      string
		wantFound bool
	}{
		{name: "exact match", host: "web1.internal", port: "22", user: "deploy", want: "web1pass", wantFound: true},
		{name: "custom port", host: "db1.internal", port: "2200", user: "admin", want: "dbpass", wantFound: true},
		{name: "wildcard host", host: "anything.internal", port: "22", user: "fallback", want: "anyhostpass", wantFound: true},
		{name: "wildcard port", host: "web2.internal", port: "9999", user: "deploy", want: "anyportpass", wantFound: true},
		{name: "no match", host: "web1.internal", port: "22", user: "other", wantFound: false},
		{name: "wrong port", host: "db1.internal", port: "22", user: "admin", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password, found, err := LookupPassword(path, tt.host, tt.port, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.want, password)
			}
		})
	}
}

func TestLookupPassword_PasswordWithColons(t *testing.T) {
	path := writePassfile(t, "web1.internal:22:deploy:pass:with:colons\n", 0600)

	password, found, err := LookupPassword(path, "web1.internal", "22", "deploy")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pass:with:colons", password)
}

func TestLookupPassword_SkipsMalformedLines(t *testing.T) {
	path := writePassfile(t, `not-an-entry
web1.internal:22
web1.internal:22:deploy:goodpass
`, 0600)

	password, found, err := LookupPassword(path, "web1.internal", "22", "deploy")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "goodpass", password)
}
