package persist

import (
	"bytes"
	"encoding/json"
	"strings"

	"gocatalog_api/internal/catalog/business/models"
	"gocatalog_api/internal/catalog/business/models/dto/response"
)

func normalizeKind(kind string) models.AttributeKind {
	switch k := models.AttributeKind(strings.ToUpper(strings.TrimSpace(kind))); k {
	case models.AttributeList, models.AttributeText, models.AttributeInteger, models.AttributeFloat:
		return k
	default:
		return models.AttributeText
	}
}

func buildAttributes(remote []response.Attribute, descs map[models.AttributeRef]models.AttributeDescription) models.Attributes {
	out := make(models.Attributes, 0, len(remote))
	for _, a := range remote {
		kind := normalizeKind(a.Kind)
		attr := models.Attribute{
			Kind:         kind,
			InternalName: a.Name,
			DisplayName:  a.Name,
			Value:        attributeValue(kind, a.Value),
		}
		if d, ok := descs[models.AttributeRef{ID: a.ID, Kind: kind}]; ok {
			if d.DisplayName != nil && strings.TrimSpace(*d.DisplayName) != "" {
				attr.DisplayName = *d.DisplayName
			}
			attr.Prefix = d.Prefix
			attr.Postfix = d.Postfix
		}
		out = append(out, attr)
	}
	return out
}

// attributeValue gives a scalar for INTEGER/FLOAT and a list for LIST/TEXT.
func attributeValue(kind models.AttributeKind, raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if kind.IsScalar() {
			return nil
		}
		return []any{}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		v = string(raw)
	}

	if kind.IsScalar() {
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				return nil
			}
			v = list[0]
		}
		return number(kind, v)
	}

	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func number(kind models.AttributeKind, v any) any {
	var n json.Number
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.ReplaceAll(strings.TrimSpace(t), ",", "."))
	default:
		return v
	}
	if kind == models.AttributeInteger {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return v
}
