// Package host gathers the identity facts of the machine being provisioned:
// distribution name, release version and CPU architecture.
package host
