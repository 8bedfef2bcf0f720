package logging

import (
	"sort"
	"strings"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoHighlightKeys are shown first, in this order, on info-level console lines.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldErrorKind,
	"error",
	FieldErrorHint,
	FieldImpact,
	"state",
	"failed_step",
	"total_rows",
	"clean_rows",
	"rejected_rows",
	"invalid_rows",
	"elapsed",
	"timestamp",
}

// selectInfoFields returns formatted info-level fields and a count of hidden
// entries. limit=0 means no limit.
func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	rank := make(map[string]int, len(infoHighlightKeys))
	for i, key := range infoHighlightKeys {
		rank[key] = i
	}
	visible := make([]kv, 0, len(attrs))
	hidden := 0
	for _, attr := range attrs {
		if isDebugOnlyKey(attr.key) {
			hidden++
			continue
		}
		visible = append(visible, attr)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		ri, iok := rank[visible[i].key]
		rj, jok := rank[visible[j].key]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return false
		}
	})
	if limit > 0 && len(visible) > limit {
		hidden += len(visible) - limit
		visible = visible[:limit]
	}
	out := make([]infoField, 0, len(visible))
	for _, attr := range visible {
		out = append(out, infoField{label: displayLabel(attr.key), value: formatValue(attr.value)})
	}
	return out, hidden
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "", FieldRunID, "source_fingerprint":
		return true
	}
	return strings.HasSuffix(key, "_fingerprint")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Error Kind"
	case FieldErrorHint:
		return "Hint"
	case "json_path":
		return "JSON"
	case "csv_path":
		return "CSV"
	}
	return titleizeKey(key)
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '.' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
