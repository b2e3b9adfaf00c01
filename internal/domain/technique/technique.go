// Package technique canonicalizes a (target, method-set) pair into the stable
// key used for grouping, deduplication and lookups across the service.
package technique

import (
	"sort"
	"strings"
)

// Target is a strike zone. Fixed reference data.
type Target string

// Strike zones.
const (
	TargetMen   Target = "MEN"
	TargetKote  Target = "KOTE"
	TargetDo    Target = "DO"
	TargetTsuki Target = "TSUKI"
)

// Method is a technique modifier describing how a strike was delivered.
type Method string

// Technique modifiers. The last three are side/variant qualifiers that only
// apply in combination with a specific target.
const (
	MethodSuriage  Method = "SURIAGE"
	MethodKaeshi   Method = "KAESHI"
	MethodDebana   Method = "DEBANA"
	MethodHiki     Method = "HIKI"
	MethodTobikomi Method = "TOBIKOMI"
	MethodGyaku    Method = "GYAKU"  // DO only
	MethodHidari   Method = "HIDARI" // KOTE only
	MethodAikote   Method = "AIKOTE" // MEN only
)

// KeyHansoku is the literal key assigned to foul-awarded points. Foul points
// bypass canonicalization entirely.
const KeyHansoku = "HANSOKU"

// KeyIncomplete marks a point that carries neither target nor methods. It must
// never be aggregated or persisted as a real technique.
const KeyIncomplete = ":"

// Targets returns the fixed target set in display order.
func Targets() []Target {
	return []Target{TargetMen, TargetKote, TargetDo, TargetTsuki}
}

// Methods returns the fixed method set in display order.
func Methods() []Method {
	return []Method{
		MethodSuriage, MethodKaeshi, MethodDebana, MethodHiki,
		MethodTobikomi, MethodGyaku, MethodHidari, MethodAikote,
	}
}

// Label returns the display label for a target.
func (t Target) Label() string {
	switch t {
	case TargetMen:
		return "Men"
	case TargetKote:
		return "Kote"
	case TargetDo:
		return "Do"
	case TargetTsuki:
		return "Tsuki"
	default:
		return string(t)
	}
}

// Label returns the display label for a method.
func (m Method) Label() string {
	switch m {
	case MethodSuriage:
		return "Suriage"
	case MethodKaeshi:
		return "Kaeshi"
	case MethodDebana:
		return "Debana"
	case MethodHiki:
		return "Hiki"
	case MethodTobikomi:
		return "Tobikomi"
	case MethodGyaku:
		return "Gyaku"
	case MethodHidari:
		return "Hidari"
	case MethodAikote:
		return "Ai-kote"
	default:
		return string(m)
	}
}

// CanonicalKey derives the stable technique key:
// "<TARGET>:<method1>+<method2>+..." with methods sorted alphabetically, so
// the same logical technique serializes identically regardless of the order
// methods were entered. A pair with no target and no methods yields
// KeyIncomplete.
func CanonicalKey(target string, methods []string) string {
	if target == "" && len(methods) == 0 {
		return KeyIncomplete
	}
	sorted := make([]string, len(methods))
	copy(sorted, methods)
	sort.Strings(sorted)
	return target + ":" + strings.Join(sorted, "+")
}

// CoarseKey derives the coarse grouping key by discarding methods and keeping
// only the target. Used for target-granularity breakdowns.
func CoarseKey(target string, methods []string) string {
	if target == "" && len(methods) == 0 {
		return KeyIncomplete
	}
	return target
}

// IsIncomplete reports whether key marks a not-yet-valid technique.
func IsIncomplete(key string) bool {
	return key == KeyIncomplete
}

// QualifierAllowed reports whether a qualifier method is valid in combination
// with the given target. This is an entry-time constraint for input surfaces;
// the canonical key deliberately does not enforce it.
func QualifierAllowed(t Target, m Method) bool {
	switch m {
	case MethodGyaku:
		return t == TargetDo
	case MethodHidari:
		return t == TargetKote
	case MethodAikote:
		return t == TargetMen
	default:
		return true
	}
}
