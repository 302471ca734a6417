package model

import (
	"fmt"
	"strings"
)

// Status is the inclusion category of a model element.
type Status uint8

const (
	StatusInherit Status = iota
	StatusExclude
	StatusApiRoot
	StatusApiFxInternal
	StatusApiClosure
	StatusImplRoot
	StatusImplClosure
)

var statusNames = [...]string{"Inherit", "Exclude", "ApiRoot", "ApiFxInternal", "ApiClosure", "ImplRoot", "ImplClosure"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	out := make([]Status, len(statusNames))
	for i := range statusNames {
		out[i] = Status(i)
	}
	return out
}

// IsApi reports the statuses that make an element part of the public surface.
func (s Status) IsApi() bool {
	return s == StatusApiRoot || s == StatusApiClosure || s == StatusApiFxInternal
}

// IsImpl reports the implementation-only statuses.
func (s Status) IsImpl() bool {
	return s == StatusImplRoot || s == StatusImplClosure
}

// ParseStatus parses a status name case-insensitively. Empty means Inherit.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusInherit, nil
	}
	for i, name := range statusNames {
		if strings.EqualFold(s, name) {
			return Status(i), nil
		}
	}
	return StatusInherit, fmt.Errorf("unknown status %q", s)
}

// VisibilityOverride forces an element's visibility in the thinned output.
type VisibilityOverride uint8

const (
	VisibilityNone VisibilityOverride = iota
	VisibilityInternal
)

func (v VisibilityOverride) String() string {
	if v == VisibilityInternal {
		return "internal"
	}
	return "none"
}

// ParseVisibilityOverride parses "internal", "none" or "".
func ParseVisibilityOverride(s string) (VisibilityOverride, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return VisibilityNone, nil
	case "internal":
		return VisibilityInternal, nil
	}
	return VisibilityNone, fmt.Errorf("unknown visibility override %q", s)
}

// SecurityTransparency is carried through model files unchanged.
type SecurityTransparency uint8

const (
	SecurityUndefined SecurityTransparency = iota
	SecurityTransparent
	SecurityCritical
	SecuritySafeCritical
)

var securityNames = [...]string{"Undefined", "Transparent", "Critical", "SafeCritical"}

func (s SecurityTransparency) String() string {
	if int(s) < len(securityNames) {
		return securityNames[s]
	}
	return "Undefined"
}

// ParseSecurityTransparency parses a transparency name case-insensitively.
func ParseSecurityTransparency(s string) (SecurityTransparency, error) {
	if s == "" {
		return SecurityUndefined, nil
	}
	for i, name := range securityNames {
		if strings.EqualFold(s, name) {
			return SecurityTransparency(i), nil
		}
	}
	return SecurityUndefined, fmt.Errorf("unknown security transparency %q", s)
}
