package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
)

// SimpleKeyfile reads and writes a private key as an unencrypted, unformatted
// hex dump of the key's D value.
type SimpleKeyfile struct {
	l       sync.Mutex
	keyfile string
}

// NewSimpleKeyfile instantiates a new SimpleKeyfile with an underlying file.
func NewSimpleKeyfile(keyfile string) *SimpleKeyfile {
	return &SimpleKeyfile{keyfile: keyfile}
}

// CheckFileInfo verifies that the file exists and has user permissions only.
func (k *SimpleKeyfile) CheckFileInfo() error {
	info, err := os.Stat(k.keyfile)
	if err != nil {
		return err
	}

	perm := info.Mode().Perm()

	// permissions for 'groups' and 'others'
	var nonUserMask os.FileMode = (1 << 6) - 1
	if perm&nonUserMask != 0 {
		return fmt.Errorf("key file permissions should exclude 'groups' and 'others'. Got %o", perm)
	}

	return nil
}

// ReadKey reads the key from the underlying file.
func (k *SimpleKeyfile) ReadKey() (*ecdsa.PrivateKey, error) {
	k.l.Lock()
	defer k.l.Unlock()

	if err := k.CheckFileInfo(); err != nil {
		return nil, err
	}

	buf, err := os.ReadFile(k.keyfile)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(buf)))
	if err != nil {
		return nil, err
	}

	return ParsePrivateKey(raw)
}

// WriteKey writes a raw hex dump of the key's D value to the underlying file.
func (k *SimpleKeyfile) WriteKey(key *ecdsa.PrivateKey) error {
	k.l.Lock()
	defer k.l.Unlock()

	rawKey := hex.EncodeToString(DumpPrivateKey(key))

	if err := os.MkdirAll(path.Dir(k.keyfile), 0700); err != nil {
		return err
	}

	return os.WriteFile(k.keyfile, []byte(rawKey), 0600)
}
