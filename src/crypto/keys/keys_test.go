package keys

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignVerify(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	pub := PublicKeyOf(priv)

	data := []byte("routing test message")

	sig, err := Sign(priv, data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !pub.Verify(data, sig) {
		t.Fatalf("signature should verify")
	}
	if pub.Verify([]byte("tampered"), sig) {
		t.Fatalf("signature should not verify altered data")
	}

	other, _ := GenerateKey()
	if PublicKeyOf(other).Verify(data, sig) {
		t.Fatalf("signature should not verify under another key")
	}
}

func TestSignatureEncodeDecode(t *testing.T) {
	priv, _ := GenerateKey()
	sig, err := Sign(priv, []byte("payload"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded, err := DecodeSignature(sig.Encode())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if decoded.R.Cmp(sig.R) != 0 || decoded.S.Cmp(sig.S) != 0 {
		t.Fatalf("decoded signature does not match")
	}

	if _, err := DecodeSignature("not-a-signature"); err == nil {
		t.Fatalf("malformed signature should be rejected")
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	priv, _ := GenerateKey()
	pub := PublicKeyOf(priv)

	ecdsaPub, err := pub.ToECDSA()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if FromECDSAPub(ecdsaPub) != pub {
		t.Fatalf("public key round trip mismatch")
	}

	var zero PublicKey
	if !zero.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}
	if _, err := zero.ToECDSA(); err == nil {
		t.Fatalf("zero key is not a curve point")
	}
}

func TestSimpleKeyfile(t *testing.T) {
	dir, err := os.MkdirTemp("", "routing")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	keyfile := NewSimpleKeyfile(filepath.Join(dir, "priv_key"))

	// Try a read, should get nothing
	if _, err := keyfile.ReadKey(); err == nil {
		t.Fatalf("ReadKey should generate an error")
	}

	key, _ := GenerateKey()
	if err := keyfile.WriteKey(key); err != nil {
		t.Fatalf("err: %v", err)
	}

	read, err := keyfile.ReadKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if read.D.Cmp(key.D) != 0 {
		t.Fatalf("keys do not match")
	}
}
