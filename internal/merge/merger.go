package merge

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/reportgest/internal/report"
)

// Merger combines successful chapter results into one consolidated
// record. It holds no state between calls; the logger is only used for
// unresolved cross-reference warnings.
type Merger struct {
	log *slog.Logger
}

func NewMerger(log *slog.Logger) *Merger {
	return &Merger{log: log}
}

// collected is one field value with its source chapter.
type collected struct {
	ordinal int
	title   string
	value   any
}

// Merge applies the shape table to the successful chapter results and
// returns a consolidated record. With zero successful chapters every
// declared field is present at its empty default; Merge never errors.
func (m *Merger) Merge(results []report.ChapterResult, shape []FieldSpec) report.ConsolidatedRecord {
	rec := report.ConsolidatedRecord{
		Fields: make(map[string]any, len(shape)),
		Meta: report.MergeMeta{
			TotalChapters: len(results),
			GeneratedAt:   time.Now().UTC(),
		},
	}

	var ok []report.ChapterResult
	for _, r := range results {
		rec.Meta.ChapterTitles = append(rec.Meta.ChapterTitles, r.Title)
		if r.Success {
			ok = append(ok, r)
			rec.Meta.Succeeded++
		} else {
			rec.Meta.Failed++
		}
	}

	// Identifier maps from renumbering passes, keyed by field name.
	// Inner keys are chapter-scoped: "ordinal:localID".
	idMaps := make(map[string]map[string]string)
	firstIDs := make(map[string]string)

	// Remap-refs fields depend on another field's renumbering pass, so
	// they are applied after everything else.
	var deferred []FieldSpec
	for _, spec := range shape {
		if spec.Strategy == AppendRemapRefs {
			deferred = append(deferred, spec)
			continue
		}
		m.applyField(&rec, spec, ok, idMaps, firstIDs)
	}
	for _, spec := range deferred {
		m.applyField(&rec, spec, ok, idMaps, firstIDs)
	}

	return rec
}

func (m *Merger) applyField(rec *report.ConsolidatedRecord, spec FieldSpec, ok []report.ChapterResult, idMaps map[string]map[string]string, firstIDs map[string]string) {
	values := collectField(ok, spec.Name)

	switch spec.Strategy {
	case FirstNonNull:
		rec.Fields[spec.Name] = firstNonNull(values)
	case WorstOfScale:
		rec.Fields[spec.Name] = extremeOfScale(values, spec.Scale, false)
	case MaxOfScale:
		rec.Fields[spec.Name] = extremeOfScale(values, spec.Scale, true)
	case ConcatWithLabel:
		rec.Fields[spec.Name] = concatWithLabel(values)
	case AppendDedup:
		items := dedupItems(collectItems(ok, spec.Name), spec.DedupKeys)
		rec.Fields[spec.Name] = bareItems(items)
	case AppendRenumber:
		items := dedupItems(collectItems(ok, spec.Name), spec.DedupKeys)
		out := m.renumber(items, spec, idMaps, firstIDs)
		rec.Fields[spec.Name] = out
	case AppendRemapRefs:
		items := dedupItems(collectItems(ok, spec.Name), spec.DedupKeys)
		m.remapRefs(items, spec, idMaps, firstIDs)
		out := m.renumber(items, spec, idMaps, firstIDs)
		rec.Fields[spec.Name] = out
	}
}

// collectField gathers one field's value from every successful chapter,
// in chapter order. Chapters missing the field are skipped.
func collectField(ok []report.ChapterResult, name string) []collected {
	var values []collected
	for _, r := range ok {
		v, present := r.Partial[name]
		if !present || v == nil {
			continue
		}
		values = append(values, collected{ordinal: r.Ordinal, title: r.Title, value: v})
	}
	return values
}

func firstNonNull(values []collected) any {
	for _, v := range values {
		switch x := v.value.(type) {
		case string:
			if strings.TrimSpace(x) != "" {
				return x
			}
		case map[string]any:
			if len(x) > 0 {
				return x
			}
		case []any:
			if len(x) > 0 {
				return x
			}
		default:
			return x
		}
	}
	return nil
}

// extremeOfScale keeps the label with the lowest (worst-of) or highest
// (max-of) ordinal. Unmapped values are skipped. Ties simply resolve to
// that ordinal's label.
func extremeOfScale(values []collected, scale map[string]int, max bool) string {
	best := ""
	bestOrd := 0
	for _, v := range values {
		s, _ := v.value.(string)
		ord, mapped := scale[strings.ToLower(strings.TrimSpace(s))]
		if !mapped {
			continue
		}
		if best == "" || (max && ord > bestOrd) || (!max && ord < bestOrd) {
			best = strings.ToLower(strings.TrimSpace(s))
			bestOrd = ord
		}
	}
	return best
}

func concatWithLabel(values []collected) string {
	var blocks []string
	for _, v := range values {
		s, _ := v.value.(string)
		if strings.TrimSpace(s) == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("**%s:**\n%s", v.title, s))
	}
	return strings.Join(blocks, "\n\n")
}

// item is one list element with its source chapter.
type item struct {
	ordinal int
	title   string
	fields  map[string]any
}

// collectItems flattens a list field across chapters in chapter order,
// cloning each element so merging never mutates a chapter result.
func collectItems(ok []report.ChapterResult, name string) []item {
	var items []item
	for _, r := range ok {
		list, isList := r.Partial[name].([]any)
		if !isList {
			continue
		}
		for _, raw := range list {
			fields, isMap := raw.(map[string]any)
			if !isMap {
				continue
			}
			clone := make(map[string]any, len(fields))
			for k, v := range fields {
				clone[k] = v
			}
			items = append(items, item{ordinal: r.Ordinal, title: r.Title, fields: clone})
		}
	}
	return items
}

// dedupItems keeps the first occurrence of each composite key. Items
// whose key fields are all empty are kept unconditionally.
func dedupItems(items []item, keys []string) []item {
	if len(keys) == 0 {
		return items
	}
	seen := make(map[string]bool, len(items))
	var out []item
	for _, it := range items {
		key := compositeKey(it.fields, keys)
		if key == "" {
			out = append(out, it)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

func compositeKey(fields map[string]any, keys []string) string {
	parts := make([]string, 0, len(keys))
	empty := true
	for _, k := range keys {
		s, _ := fields[k].(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			empty = false
		}
		parts = append(parts, s)
	}
	if empty {
		return ""
	}
	return strings.Join(parts, "|")
}

// renumber assigns sequential global identifiers in final list order
// and records the chapter-scoped old-to-new mapping for remap passes.
func (m *Merger) renumber(items []item, spec FieldSpec, idMaps map[string]map[string]string, firstIDs map[string]string) []map[string]any {
	width := spec.IDWidth
	if width <= 0 {
		width = 2
	}
	mapping := make(map[string]string, len(items))

	out := make([]map[string]any, 0, len(items))
	for i, it := range items {
		globalID := fmt.Sprintf("%s%0*d", spec.IDPrefix, width, i+1)
		if localID, has := it.fields[spec.LocalIDField].(string); has && localID != "" {
			mapping[scopedID(it.ordinal, localID)] = globalID
		}
		if spec.LocalIDField != "" {
			it.fields[spec.LocalIDField] = globalID
		}
		if i == 0 {
			firstIDs[spec.Name] = globalID
		}
		out = append(out, it.fields)
	}

	idMaps[spec.Name] = mapping
	return out
}

// remapRefs rewrites each item's reference field through the target
// field's identifier map, scoped by source chapter. Unresolvable
// references fall back to the target's first global identifier.
func (m *Merger) remapRefs(items []item, spec FieldSpec, idMaps map[string]map[string]string, firstIDs map[string]string) {
	mapping := idMaps[spec.RefTarget]
	for i := range items {
		it := &items[i]
		ref, _ := it.fields[spec.RefField].(string)
		if strings.TrimSpace(ref) == "" {
			continue
		}
		if newID, found := mapping[scopedID(it.ordinal, ref)]; found {
			it.fields[spec.RefField] = newID
			continue
		}
		fallback := firstIDs[spec.RefTarget]
		m.log.Warn("unresolved cross-reference",
			"field", spec.Name,
			"ref", ref,
			"chapter", it.title,
			"fallback", fallback,
		)
		it.fields[spec.RefField] = fallback
	}
}

func scopedID(ordinal int, localID string) string {
	return fmt.Sprintf("%d:%s", ordinal, strings.TrimSpace(localID))
}

func bareItems(items []item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.fields)
	}
	return out
}
