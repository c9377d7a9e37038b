package chain

import (
	"crypto/ecdsa"
	"testing"

	"github.com/sectornet/routing/src/crypto/keys"
)

// genBlock creates a new key signed by the previous secret key.
func genBlock(t *testing.T, prev *ecdsa.PrivateKey) (*ecdsa.PrivateKey, keys.PublicKey, keys.Signature) {
	t.Helper()
	priv, err := keys.GenerateKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	pub := keys.PublicKeyOf(priv)
	sig, err := keys.Sign(prev, pub[:])
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return priv, pub, sig
}

// genChain creates a linear chain of the given length and returns it together
// with the keys in order and the secret key of the last block.
func genChain(t *testing.T, length int) (*SectionChain, []keys.PublicKey, *ecdsa.PrivateKey) {
	t.Helper()
	priv, err := keys.GenerateKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	c := New(keys.PublicKeyOf(priv))
	all := []keys.PublicKey{keys.PublicKeyOf(priv)}

	for i := 1; i < length; i++ {
		next, pub, sig := genBlock(t, priv)
		if err := c.Insert(keys.PublicKeyOf(priv), pub, sig); err != nil {
			t.Fatalf("err: %v", err)
		}
		all = append(all, pub)
		priv = next
	}
	return c, all, priv
}

func TestInsertAndHasKey(t *testing.T) {
	c, all, _ := genChain(t, 2)

	if c.Len() != 2 {
		t.Fatalf("chain length: got %d, want 2", c.Len())
	}
	for _, key := range all {
		if !c.HasKey(key) {
			t.Fatalf("chain should contain inserted key %v", key)
		}
	}
	if c.RootKey() != all[0] {
		t.Fatalf("root key mismatch")
	}
	if c.LastKey() != all[1] {
		t.Fatalf("last key mismatch")
	}
}

func TestInsertUnknownParent(t *testing.T) {
	c, _, _ := genChain(t, 2)

	stranger, _ := keys.GenerateKey()
	_, pub, sig := genBlock(t, stranger)

	err := c.Insert(keys.PublicKeyOf(stranger), pub, sig)
	if !Is(err, KeyNotFound) {
		t.Fatalf("expected KeyNotFound, got %v", err)
	}
	if c.HasKey(pub) {
		t.Fatalf("failed insert should leave the chain unchanged")
	}
}

func TestInsertInvalidSignature(t *testing.T) {
	c, all, lastPriv := genChain(t, 2)

	// Sign the new key with an unrelated key instead of the chain's last key.
	wrongSigner, _ := keys.GenerateKey()
	_, pub, badSig := genBlock(t, wrongSigner)

	before := c.Len()
	err := c.Insert(keys.PublicKeyOf(lastPriv), pub, badSig)
	if !Is(err, FailedSignature) {
		t.Fatalf("expected FailedSignature, got %v", err)
	}
	if c.Len() != before || c.HasKey(pub) {
		t.Fatalf("failed insert should leave the chain unchanged")
	}
	_ = all
}

func TestCheckTrust(t *testing.T) {
	c, all, _ := genChain(t, 4)

	// Any key in the chain vouches for all of its descendants.
	for i, trusted := range all {
		for j, key := range all {
			want := Untrusted
			if j >= i {
				want = Trusted
			}
			if got := c.CheckTrust([]keys.PublicKey{trusted}, key); got != want {
				t.Fatalf("CheckTrust(%d -> %d): got %v, want %v", i, j, got, want)
			}
		}
	}

	// A key unrelated to the chain trusts nothing in it.
	unrelated, _ := keys.GenerateKey()
	if c.CheckTrust([]keys.PublicKey{keys.PublicKeyOf(unrelated)}, all[1]) != Untrusted {
		t.Fatalf("unrelated trusted key should not establish trust")
	}
	// A key absent from the chain is never trusted.
	if c.CheckTrust(all, keys.PublicKeyOf(unrelated)) != Untrusted {
		t.Fatalf("absent key should be Untrusted")
	}
}

func TestRequireTrusted(t *testing.T) {
	c, all, _ := genChain(t, 3)

	if err := c.RequireTrusted([]keys.PublicKey{all[0]}, all[2]); err != nil {
		t.Fatalf("err: %v", err)
	}

	err := c.RequireTrusted([]keys.PublicKey{all[2]}, all[0])
	if !Is(err, ErrUntrusted) {
		t.Fatalf("expected ErrUntrusted, got %v", err)
	}
	if c.CheckTrust([]keys.PublicKey{all[2]}, all[0]) != Untrusted {
		t.Fatalf("RequireTrusted and CheckTrust disagree")
	}
}

func TestForkedChain(t *testing.T) {
	c, all, _ := genChain(t, 2)

	// Build a parallel branch from the root: a legitimate fork, as produced
	// by a section split.
	rootPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	c2 := New(keys.PublicKeyOf(rootPriv))
	_, left, sigL := genBlock(t, rootPriv)
	_, right, sigR := genBlock(t, rootPriv)

	if err := c2.Insert(c2.RootKey(), left, sigL); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := c2.Insert(c2.RootKey(), right, sigR); err != nil {
		t.Fatalf("err: %v", err)
	}

	if c2.Len() != 3 {
		t.Fatalf("forked chain length: got %d, want 3", c2.Len())
	}
	// Both branches descend from the root.
	root := []keys.PublicKey{c2.RootKey()}
	if c2.CheckTrust(root, left) != Trusted || c2.CheckTrust(root, right) != Trusted {
		t.Fatalf("both fork branches should be trusted from the root")
	}
	// The branches do not vouch for each other.
	if c2.CheckTrust([]keys.PublicKey{left}, right) != Untrusted {
		t.Fatalf("sibling branches must not trust each other")
	}
	_ = all
	_ = c
}

func TestMinimize(t *testing.T) {
	c, all, _ := genChain(t, 4)

	m, err := c.Minimize([]keys.PublicKey{all[1]})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("minimized length: got %d, want 2", m.Len())
	}
	if !m.HasKey(all[0]) || !m.HasKey(all[1]) {
		t.Fatalf("minimized chain should prove the required key from the root")
	}
	if m.HasKey(all[3]) {
		t.Fatalf("minimized chain should drop keys past the required ones")
	}

	// Requiring a key that is not in the chain fails.
	stranger, _ := keys.GenerateKey()
	if _, err := c.Minimize([]keys.PublicKey{keys.PublicKeyOf(stranger)}); !Is(err, InvalidOperation) {
		t.Fatalf("expected InvalidOperation, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	c, all, lastPriv := genChain(t, 3)

	// Fork the chain: extend a minimized copy, then merge it back.
	branch, err := c.Minimize([]keys.PublicKey{all[2]})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, pub, sig := genBlock(t, lastPriv)
	if err := branch.Insert(all[2], pub, sig); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := c.Merge(branch); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !c.HasKey(pub) {
		t.Fatalf("merged chain should contain the new branch key")
	}
	if c.CheckTrust([]keys.PublicKey{all[0]}, pub) != Trusted {
		t.Fatalf("merged branch should be trusted from the root")
	}

	// Chains without shared ancestry cannot be merged.
	foreign, _, _ := genChain(t, 2)
	if err := c.Merge(foreign); !Is(err, InvalidOperation) {
		t.Fatalf("expected InvalidOperation, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	c, all, _ := genChain(t, 4)

	trunc := c.Truncate(2)
	if trunc.Len() != 2 {
		t.Fatalf("truncated length: got %d, want 2", trunc.Len())
	}
	if trunc.RootKey() != all[2] {
		t.Fatalf("truncated root should be the second-to-last key")
	}
	if trunc.LastKey() != all[3] {
		t.Fatalf("truncated chain should keep the last key")
	}
	// The dropped prefix is gone, so the old root no longer proves anything.
	if trunc.HasKey(all[0]) {
		t.Fatalf("truncated chain should not contain the old root")
	}

	// Truncating to more blocks than exist returns the whole chain.
	if c.Truncate(10).Len() != c.Len() {
		t.Fatalf("over-long truncate should return the full chain")
	}
}

func TestSelfVerify(t *testing.T) {
	c, _, _ := genChain(t, 3)
	if !c.SelfVerify() {
		t.Fatalf("a chain built through Insert should self-verify")
	}
}

func TestWireRoundTrip(t *testing.T) {
	c, all, _ := genChain(t, 3)

	data, err := c.Marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if decoded.Len() != c.Len() || decoded.RootKey() != c.RootKey() {
		t.Fatalf("decoded chain does not match")
	}
	for _, key := range all {
		if !decoded.HasKey(key) {
			t.Fatalf("decoded chain is missing a key")
		}
	}
	if !decoded.SelfVerify() {
		t.Fatalf("decoded chain should self-verify")
	}
}
