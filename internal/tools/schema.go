package tools

// InputSchema renders the JSON Schema advertised for the tool in tools/list.
// It is derived from the same declarations the validator and command
// builder use.
func (t *Tool) InputSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(t.Params))
	required := make([]string, 0)

	for i := range t.Params {
		p := &t.Params[i]
		prop := map[string]interface{}{
			"type":        p.Kind.jsonType(),
			"description": p.Description,
		}
		if p.Kind == KindEnum {
			prop["enum"] = append([]string(nil), p.Enum...)
		}
		if p.Kind == KindStringList {
			prop["items"] = map[string]interface{}{"type": "string"}
		}
		if p.Min != nil {
			prop["minimum"] = *p.Min
		}
		if p.Max != nil {
			prop["maximum"] = *p.Max
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	groups := make([]interface{}, 0, len(t.AtLeastOneOf))
	for _, group := range t.AtLeastOneOf {
		alternatives := make([]interface{}, 0, len(group))
		for _, name := range group {
			alternatives = append(alternatives, map[string]interface{}{"required": []string{name}})
		}
		groups = append(groups, map[string]interface{}{"anyOf": alternatives})
	}
	switch len(groups) {
	case 0:
	case 1:
		schema["anyOf"] = groups[0].(map[string]interface{})["anyOf"]
	default:
		schema["allOf"] = groups
	}

	return schema
}
