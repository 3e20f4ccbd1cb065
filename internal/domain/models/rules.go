package models

import "strings"

// LineClass is the classification bucket a POS line fell into.
type LineClass int

const (
	ClassNone LineClass = iota
	ClassGeneric
	ClassSuccess
	ClassFailure
)

func (c LineClass) String() string {
	switch c {
	case ClassGeneric:
		return "generic"
	case ClassSuccess:
		return "success"
	case ClassFailure:
		return "failure"
	default:
		return "none"
	}
}

// ClassificationRules holds the three substring sets loaded from the POS configuration.
type ClassificationRules struct {
	Generic []string
	Success []string
	Failure []string
}

// Normalized returns a copy without empty strings; an empty substring would match every line.
func (r ClassificationRules) Normalized() ClassificationRules {
	return ClassificationRules{
		Generic: compact(r.Generic),
		Success: compact(r.Success),
		Failure: compact(r.Failure),
	}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Classify checks generic, then success, then failure strings. First match wins.
func (r ClassificationRules) Classify(line string) LineClass {
	switch {
	case containsAny(line, r.Generic):
		return ClassGeneric
	case containsAny(line, r.Success):
		return ClassSuccess
	case containsAny(line, r.Failure):
		return ClassFailure
	default:
		return ClassNone
	}
}

func containsAny(line string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(line, s) {
			return true
		}
	}
	return false
}
