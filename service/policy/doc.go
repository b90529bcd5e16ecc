// Package policy defines the abstract scheduling-policy surface consumed by
// the kernel dispatcher, together with the typed errors shared by concrete
// policies. See the rr subpackage for the round-robin implementation.
package policy
