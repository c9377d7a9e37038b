// Package config defines the configuration of a routing node: directories,
// transport addresses, logging, and the network-wide parameters that every
// participating node must agree on.
package config
