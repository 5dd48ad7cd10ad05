package accounts

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Account is one platform login, loaded once at startup and immutable for
// the process lifetime.
type Account struct {
	Email    string
	Password string
}

// Load reads the credential file at path: one "email:password" pair per line.
// Blank lines and lines without a ':' separator are skipped. Whitespace
// around both fields is trimmed. File order is preserved.
//
// A missing or unreadable file is an error — callers treat it as fatal
// because no session can start without credentials.
func Load(path string) ([]Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("accounts: open %q: %w", path, err)
	}
	defer f.Close()

	var out []Account
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		email, password, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		email = strings.TrimSpace(email)
		password = strings.TrimSpace(password)
		if email == "" || password == "" {
			continue
		}
		out = append(out, Account{Email: email, Password: password})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("accounts: read %q: %w", path, err)
	}
	return out, nil
}
