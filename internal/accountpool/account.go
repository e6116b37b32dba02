// Package accountpool loads per-account credential files, refreshes access
// tokens, tracks per-model quota, and auto-disables accounts on revoked
// refresh tokens.
package accountpool

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ModelQuota is one entry of an account's quota.models list.
type ModelQuota struct {
	Name       string    `json:"name"`
	Percentage float64   `json:"percentage"`
	ResetTime  time.Time `json:"reset_time"`
}

// Quota holds an account's known per-model headroom.
type Quota struct {
	Models      []ModelQuota `json:"models"`
	IsForbidden bool         `json:"is_forbidden,omitempty"`
}

// known reports whether this account has ever observed a quota snapshot.
// Accounts with no quota.models are "unknown quota" per §3 and are excluded
// from selection until a refresh populates them.
func (q Quota) known() bool {
	return len(q.Models) > 0
}

// lowQuotaThreshold is the global percentage below which an account is
// deprioritized until it is the only choice (§4.4).
const lowQuotaThreshold = 5.0

// percentFor returns the quota percentage for a model name, matching
// aliases (-thinking, -online, base name), and whether any match was found.
func (q Quota) percentFor(candidate string) (float64, bool) {
	base := baseModelName(candidate)
	for _, m := range q.Models {
		if m.Name == candidate || baseModelName(m.Name) == base {
			return m.Percentage, true
		}
	}
	return 0, false
}

// baseModelName strips the known quota-matching aliases from a model id.
func baseModelName(name string) string {
	for _, suffix := range []string{"-thinking", "-online"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// Account is one credential file's in-memory representation.
type Account struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	RefreshToken       string    `json:"refresh_token"`
	AccessToken        string    `json:"access_token,omitempty"`
	ExpiresAt          time.Time `json:"expires_at,omitempty"`
	Disabled           bool      `json:"disabled,omitempty"`
	DisabledAt         time.Time `json:"disabled_at,omitempty"`
	DisabledReason     string    `json:"disabled_reason,omitempty"`
	QuotaData          Quota     `json:"quota"`
	QuotaLastAttemptAt time.Time `json:"quota_last_attempt_at,omitempty"`

	mu   sync.Mutex `json:"-"`
	path string
}

// MaskedEmail renders the masked display form required by attribution and
// diagnostics (first-4, ellipsis, last-4, ASCII-only); short emails are
// fully redacted.
func (a *Account) MaskedEmail() string {
	return maskASCII(a.Email)
}

func maskASCII(s string) string {
	ascii := make([]rune, 0, len(s))
	for _, r := range s {
		if r < 128 {
			ascii = append(ascii, r)
		}
	}
	if len(ascii) <= 8 {
		return "***"
	}
	return string(ascii[:4]) + "..." + string(ascii[len(ascii)-4:])
}

// accessTokenValid reports whether the cached access token is still usable.
func (a *Account) accessTokenValid() bool {
	return a.AccessToken != "" && time.Now().Before(a.ExpiresAt.Add(-5*time.Second))
}

// loadAccount reads one accounts/*.json credential file.
func loadAccount(path string) (*Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading account file %s: %w", path, err)
	}
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing account file %s: %w", path, err)
	}
	a.path = path
	if a.ID == "" {
		id, err := newULID()
		if err != nil {
			return nil, fmt.Errorf("minting id for account file %s: %w", path, err)
		}
		a.ID = id
		if err := a.persist(); err != nil {
			return nil, fmt.Errorf("persisting minted id for account file %s: %w", path, err)
		}
	}
	return &a, nil
}

// newULID generates a new ULID using a cryptographically secure source, for
// credential files dropped in accounts/ without a pre-assigned id.
func newULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating ULID: %w", err)
	}
	return id.String(), nil
}

// persist rewrites the credential file on disk with the account's current
// state. Called holding a.mu.
func (a *Account) persist() error {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, a.path)
}

// loadAccountsDir reads every accounts/*.json file in dir.
func loadAccountsDir(dir string) ([]*Account, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading account directory %s: %w", dir, err)
	}

	var out []*Account
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		acc, err := loadAccount(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}
