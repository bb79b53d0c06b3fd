package entity

type ToolName string

const (
	ToolOpenBrowser    ToolName = "open_browser"
	ToolNavigate       ToolName = "navigate"
	ToolGetHTML        ToolName = "get_html"
	ToolSaveHTML       ToolName = "save_html"
	ToolCloseBrowser   ToolName = "close_browser"
	ToolTakeScreenshot ToolName = "take_screenshot"
	ToolCurrentPage    ToolName = "current_page"
)

func (t ToolName) String() string {
	return string(t)
}

// ToolParam describes one named argument of a tool. Every argument crosses
// the tool boundary as a string; Type is advisory schema information.
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     string
	Enum        []string
}

type ToolDefinition struct {
	Name            ToolName
	Description     string
	Params          []ToolParam
	RequiresSession bool
}

// Parameters renders the definition as a JSON schema object.
func (d ToolDefinition) Parameters() map[string]interface{} {
	properties := make(map[string]interface{}, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		prop := map[string]interface{}{
			"type":        typ,
			"description": p.Description,
		}
		if p.Default != "" {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
