package chain

import "fmt"

// ErrType enumerates the ways a SectionChain operation can fail.
type ErrType uint32

const (
	// KeyNotFound - the referenced parent key is not in the chain.
	KeyNotFound ErrType = iota
	// FailedSignature - the signature does not prove the new key under the
	// parent key.
	FailedSignature
	// InvalidOperation - the operation cannot be applied to this chain, for
	// example merging chains with no shared ancestry.
	InvalidOperation
	// ErrUntrusted - the key is not reachable from any trusted key.
	ErrUntrusted
)

// ChainErr is the error type returned by SectionChain operations.
type ChainErr struct {
	errType ErrType
	key     string
}

// NewChainErr ...
func NewChainErr(errType ErrType, key string) ChainErr {
	return ChainErr{errType: errType, key: key}
}

// Error ...
func (e ChainErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Key Not Found"
	case FailedSignature:
		m = "Failed Signature"
	case InvalidOperation:
		m = "Invalid Operation"
	case ErrUntrusted:
		m = "Untrusted"
	}
	return fmt.Sprintf("%s, %s", m, e.key)
}

// Is checks that an error is a ChainErr of the given type.
func Is(err error, t ErrType) bool {
	chainErr, ok := err.(ChainErr)
	return ok && chainErr.errType == t
}
