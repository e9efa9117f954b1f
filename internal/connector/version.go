package connector

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const hostVersionRequirement = "^0.1.0"

// ErrIncompatibleHost is returned by CheckHost for versions outside the range.
var ErrIncompatibleHost = errors.New("connector: incompatible host version")

// HostVersionRequirement is the semver range of host interface versions this
// connector works with.
func HostVersionRequirement() string { return hostVersionRequirement }

// CheckHost evaluates version against HostVersionRequirement.
func CheckHost(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrIncompatibleHost, version, err)
	}
	c, err := semver.NewConstraint(hostVersionRequirement)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleHost, v, hostVersionRequirement)
	}
	return nil
}
