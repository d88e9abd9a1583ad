package ecsquery

import "github.com/rotisserie/eris"

var (
	// ErrUnderspecifiedMatcher is returned by Matcher.Build when the filter has neither a must-all
	// nor an any-of rule. Such a filter has no candidate population to scan.
	ErrUnderspecifiedMatcher = eris.New("matcher needs at least one MustAll or AnyOf rule")
)
