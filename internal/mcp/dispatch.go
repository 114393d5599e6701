package mcp

import (
	"fmt"
	"sort"
	"strings"
)

// toolSeparator joins a normalized extension name to a bare tool name in
// the canonical "<extension>__<tool>" form used across the dispatch table,
// the allow/deny policy layer, and anything presented to a model.
const toolSeparator = "__"

// normalizeExtensionName canonicalizes a raw extension name into the
// [A-Za-z0-9_-] alphabet, lowercased, with whitespace stripped, matching
// the naming rule extensions must satisfy before they can be addressed in
// a qualified tool name.
func normalizeExtensionName(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			// dropped, not substituted, so "My Tool" and "MyTool" don't collide
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "ext"
	}
	return b.String()
}

// nameRegistry tracks the normalized extension names currently registered,
// assigning a short collision suffix when two distinct raw names would
// otherwise normalize to the same string, and rejecting registrations that
// would make prefix-based dispatch ambiguous (one normalized name a
// strict prefix of another with nothing to disambiguate them at a "__"
// boundary).
type nameRegistry struct {
	byServerID map[string]string // serverID -> normalized name actually in use
	byName     map[string]string // normalized name -> serverID
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{
		byServerID: make(map[string]string),
		byName:     make(map[string]string),
	}
}

// Register assigns serverID a normalized, collision-free name derived from
// rawName. Re-registering the same serverID is idempotent.
func (r *nameRegistry) Register(serverID, rawName string) (string, error) {
	if existing, ok := r.byServerID[serverID]; ok {
		return existing, nil
	}

	base := normalizeExtensionName(rawName)
	name := base
	if owner, taken := r.byName[name]; taken && owner != serverID {
		name = fmt.Sprintf("%s_%s", base, shortHash(serverID, 6))
	}

	if err := r.checkAmbiguous(name); err != nil {
		return "", err
	}

	r.byName[name] = serverID
	r.byServerID[serverID] = name
	return name, nil
}

// Unregister frees a previously-registered name so the serverID can be
// reused (e.g. reconnect after a config reload).
func (r *nameRegistry) Unregister(serverID string) {
	if name, ok := r.byServerID[serverID]; ok {
		delete(r.byName, name)
		delete(r.byServerID, serverID)
	}
}

// checkAmbiguous rejects name if it would make longest-prefix dispatch
// ambiguous against an already-registered name: neither name may be a
// "__"-prefix of the other, since that would leave two candidate
// extensions matching the same qualified tool name with no way to prefer
// one over the other by length alone.
func (r *nameRegistry) checkAmbiguous(name string) error {
	for existing := range r.byName {
		if existing == name {
			continue
		}
		if strings.HasPrefix(existing+toolSeparator, name+toolSeparator) ||
			strings.HasPrefix(name+toolSeparator, existing+toolSeparator) {
			if len(existing) != len(name) {
				continue // longest-match still disambiguates these two
			}
			return fmt.Errorf("extension name %q collides with already-registered %q", name, existing)
		}
	}
	return nil
}

// shortHash derives a short, deterministic, alphanumeric suffix from s.
// Not cryptographic; only needed to break accidental normalization
// collisions predictably.
func shortHash(s string, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[int(h)%len(alphabet)]
		h /= uint32(len(alphabet))
		if h == 0 {
			h = 2166136261 ^ uint32(i+1)
		}
	}
	return string(out)
}

// resolveQualifiedTool splits a qualified tool name of the form
// "<extension>__<tool>" against the set of registered normalized
// extension names, preferring the longest matching extension-name prefix
// so an extension name that itself contains "__" is still resolved
// correctly over a shorter, coincidentally-matching prefix.
func resolveQualifiedTool(qualified string, names map[string]string) (serverID, toolName string, ok bool) {
	idx := strings.Index(qualified, toolSeparator)
	if idx < 0 {
		return "", "", false
	}

	candidates := make([]string, 0, len(names))
	for name := range names {
		if strings.HasPrefix(qualified, name+toolSeparator) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", "", false
	}

	sort.Slice(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })
	best := candidates[0]
	return names[best], strings.TrimPrefix(qualified, best+toolSeparator), true
}

// qualifiedToolName builds the canonical "<extension>__<tool>" name
// presented to the model and accepted back from it.
func qualifiedToolName(extensionName, toolName string) string {
	return extensionName + toolSeparator + toolName
}
