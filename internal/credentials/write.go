package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrExists is returned by Write when the file exists and overwrite is false.
var ErrExists = errors.New("credentials file already exists")

// Write stores creds at path as a certbot-style INI file readable only by the
// owner. Keys carry the "dns_<prefix>_" form when prefix is set.
func Write(path, prefix string, creds Credentials, overwrite bool) error {
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid credentials: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("creating credentials file: %w", err)
	}
	defer f.Close()

	// An existing file keeps its mode on truncate.
	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("restricting credentials file mode: %w", err)
	}

	key := func(name string) string {
		if prefix == "" {
			return name
		}
		return "dns_" + strings.ToLower(prefix) + "_" + name
	}

	var b strings.Builder
	b.WriteString("# dinadns credentials\n")
	fmt.Fprintf(&b, "%s = %s\n", key(KeyUsername), quoteINI(creds.Username))
	fmt.Fprintf(&b, "%s = %s\n", key(KeyPassword), quoteINI(creds.Password))
	if creds.TTL > 0 {
		fmt.Fprintf(&b, "%s = %d\n", key(KeyTTL), creds.TTL)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	return f.Close()
}

// quoteINI quotes v when parseINI would otherwise read it differently.
func quoteINI(v string) string {
	if !strings.ContainsAny(v, "#;\"'") && strings.TrimSpace(v) == v {
		return v
	}
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	return "'" + v + "'"
}
