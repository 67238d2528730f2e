package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/pulanodus/tableserve-backend/pkg/db/models"
	"github.com/pulanodus/tableserve-backend/pkg/types"
)

// normalizeCustomizations trims each value and drops empties. The original
// order is preserved for storage; identity comparison sorts its own copy.
func normalizeCustomizations(raw []string) types.StringList {
	if len(raw) == 0 {
		return nil
	}
	clean := make(types.StringList, 0, len(raw))
	for _, value := range raw {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

// OptionsHash fingerprints a line's option set for indexed lookup. Two lines
// with the same notes, shared flag, takeaway flag, and customization set hash
// identically regardless of customization order. The hash narrows the
// candidate scan; equality is always verified field by field.
func OptionsHash(notes string, isShared, isTakeaway bool, customizations types.StringList) string {
	sorted := customizations.Clone()
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("notes=")
	b.WriteString(strings.TrimSpace(notes))
	b.WriteString("|shared=")
	b.WriteString(strconv.FormatBool(isShared))
	b.WriteString("|takeaway=")
	b.WriteString(strconv.FormatBool(isTakeaway))
	b.WriteString("|custom=")
	b.WriteString(strings.Join(sorted, "\x1f"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// optionsMatch compares a stored line's identity fields against the requested
// options, customization lists compared as sorted sets.
func optionsMatch(line *models.CartLine, notes string, isShared, isTakeaway bool, customizations types.StringList) bool {
	if line.Notes != strings.TrimSpace(notes) {
		return false
	}
	if line.IsShared != isShared || line.IsTakeaway != isTakeaway {
		return false
	}
	if len(line.Customizations) != len(customizations) {
		return false
	}
	stored := line.Customizations.Clone()
	requested := customizations.Clone()
	sort.Strings(stored)
	sort.Strings(requested)
	for i := range stored {
		if stored[i] != requested[i] {
			return false
		}
	}
	return true
}
