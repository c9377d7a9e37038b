// Package keys wraps the elliptic-curve primitives used for node and section
// keys. The routing core treats keys and signatures as opaque verifiable
// tokens; everything that actually touches curve arithmetic lives here.
package keys
