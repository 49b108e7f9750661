package pairing

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valetproj/valet/internal/logging"
)

const (
	codeLength = 6
	codeTTL    = 10 * time.Minute

	// Uppercase letters and digits minus the lookalikes (0/O, 1/I/L).
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

var (
	// ErrInvalidCode means the code was never issued or was already used.
	ErrInvalidCode = errors.New("invalid pairing code")
	// ErrExpiredCode means the code was issued but its window has passed.
	ErrExpiredCode = errors.New("pairing code expired")
)

type pendingCode struct {
	platform string
	userID   string
	display  string
	expires  time.Time
}

// Gate is the admission check for inbound messages. Approved users pass;
// unknown users get a single-use code they can relay to the owner.
type Gate struct {
	mu    sync.Mutex
	codes map[string]pendingCode
	store *Store

	now func() time.Time
}

// NewGate creates a gate backed by the given store.
func NewGate(store *Store) *Gate {
	return &Gate{
		codes: make(map[string]pendingCode),
		store: store,
		now:   time.Now,
	}
}

// IsApproved reports whether a platform user has a durable pairing.
func (g *Gate) IsApproved(platform, userID string) (bool, error) {
	rec, err := g.store.Get(platform, userID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// IssueCode mints a new single-use pairing code for an unknown user. A
// user may hold several outstanding codes; each is independently valid
// until used or expired.
func (g *Gate) IssueCode(platform, userID, display string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", fmt.Errorf("generate pairing code: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()
	g.codes[code] = pendingCode{
		platform: platform,
		userID:   userID,
		display:  display,
		expires:  g.now().Add(codeTTL),
	}
	logging.Infof("pairing", "issued code for %s user %s", platform, userID)
	return code, nil
}

// Approve consumes a code and records a durable pairing. The caller is
// responsible for verifying that approvedBy is the owner.
func (g *Gate) Approve(code, approvedBy string) (*Record, error) {
	g.mu.Lock()
	pending, ok := g.codes[code]
	if ok {
		delete(g.codes, code)
	}
	g.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCode
	}
	if g.now().After(pending.expires) {
		return nil, ErrExpiredCode
	}

	rec := &Record{
		Platform:   pending.platform,
		UserID:     pending.userID,
		Display:    pending.display,
		ApprovedAt: g.now(),
		ApprovedBy: approvedBy,
	}
	if err := g.store.Put(rec); err != nil {
		return nil, err
	}
	logging.Infof("pairing", "approved %s user %s", rec.Platform, rec.UserID)
	return rec, nil
}

// Revoke removes a durable pairing. The user will need a new code to
// talk to the agent again.
func (g *Gate) Revoke(platform, userID string) error {
	if err := g.store.Delete(platform, userID); err != nil {
		return err
	}
	logging.Infof("pairing", "revoked %s user %s", platform, userID)
	return nil
}

// List returns all durable pairings.
func (g *Gate) List() ([]Record, error) {
	return g.store.List()
}

// sweepLocked drops expired codes. Caller holds g.mu.
func (g *Gate) sweepLocked() {
	now := g.now()
	for code, p := range g.codes {
		if now.After(p.expires) {
			delete(g.codes, code)
		}
	}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
