package pairing

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "pairing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewGate(store)
}

func TestIssueAndApprove(t *testing.T) {
	g := newTestGate(t)

	ok, err := g.IsApproved("telegram", "42")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("unknown user should not be approved")
	}

	code, err := g.IssueCode("telegram", "42", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != codeLength {
		t.Errorf("code length: got %d", len(code))
	}

	rec, err := g.Approve(code, "owner")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.UserID != "42" || rec.ApprovedBy != "owner" {
		t.Errorf("record: %+v", rec)
	}

	ok, err = g.IsApproved("telegram", "42")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("user should be approved after code redemption")
	}
}

func TestCodeIsSingleUse(t *testing.T) {
	g := newTestGate(t)
	code, err := g.IssueCode("telegram", "42", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Approve(code, "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Approve(code, "owner"); err != ErrInvalidCode {
		t.Errorf("second redemption: got %v, want ErrInvalidCode", err)
	}
}

func TestUnknownCodeRejected(t *testing.T) {
	g := newTestGate(t)
	if _, err := g.Approve("NOPE99", "owner"); err != ErrInvalidCode {
		t.Errorf("got %v, want ErrInvalidCode", err)
	}
}

func TestExpiredCodeRejected(t *testing.T) {
	g := newTestGate(t)
	base := time.Now()
	g.now = func() time.Time { return base }

	code, err := g.IssueCode("telegram", "42", "Alice")
	if err != nil {
		t.Fatal(err)
	}

	g.now = func() time.Time { return base.Add(codeTTL + time.Second) }
	if _, err := g.Approve(code, "owner"); err != ErrExpiredCode {
		t.Errorf("got %v, want ErrExpiredCode", err)
	}
}

func TestMultipleOutstandingCodes(t *testing.T) {
	g := newTestGate(t)
	c1, err := g.IssueCode("telegram", "42", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := g.IssueCode("telegram", "42", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Fatal("codes should be distinct")
	}
	// Either code works; the other stays valid until used.
	if _, err := g.Approve(c2, "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Approve(c1, "owner"); err != nil {
		t.Fatal(err)
	}
}

func TestRevoke(t *testing.T) {
	g := newTestGate(t)
	code, _ := g.IssueCode("telegram", "42", "Alice")
	if _, err := g.Approve(code, "owner"); err != nil {
		t.Fatal(err)
	}
	if err := g.Revoke("telegram", "42"); err != nil {
		t.Fatal(err)
	}
	ok, err := g.IsApproved("telegram", "42")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("user should not be approved after revoke")
	}

	// Revoking a user with no pairing is a no-op.
	if err := g.Revoke("telegram", "999"); err != nil {
		t.Errorf("revoke missing: %v", err)
	}
}

func TestListPairings(t *testing.T) {
	g := newTestGate(t)
	for _, id := range []string{"1", "2"} {
		code, _ := g.IssueCode("telegram", id, "")
		if _, err := g.Approve(code, "owner"); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := g.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
}
