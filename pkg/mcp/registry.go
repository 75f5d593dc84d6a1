package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolHandler runs a tool call. It never returns a Go error; failures
// are reported in-band through ToolResult.IsError so a bad call cannot
// poison a batch.
type ToolHandler func(ctx context.Context, sess *Session, args map[string]any) *ToolResult

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`

	Handler ToolHandler `json:"-"`
}

type ToolResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResult wraps v as a successful tool result: a JSON text block
// plus the structured form.
func TextResult(v any) *ToolResult {
	text, err := json.Marshal(v)
	if err != nil {
		return ErrorResult("INTERNAL", err.Error())
	}
	return &ToolResult{
		Content:           []ContentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: v,
	}
}

// ErrorResult builds an in-band tool failure carrying a stable error
// code such as INVALID_IP.
func ErrorResult(code, message string) *ToolResult {
	body := map[string]string{"code": code, "message": message}
	text, _ := json.Marshal(body)
	return &ToolResult{
		Content:           []ContentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: body,
		IsError:           true,
	}
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`

	Read func() string `json:"-"`
}

// Registry holds the tool and resource catalogs. It is assembled once
// at startup and read-only afterwards, so dispatch needs no locking.
type Registry struct {
	tools     []*Tool
	toolIndex map[string]*Tool

	resources []*Resource
	resIndex  map[string]*Resource
}

func NewRegistry() *Registry {
	return &Registry{
		toolIndex: make(map[string]*Tool),
		resIndex:  make(map[string]*Resource),
	}
}

func (r *Registry) RegisterTool(t *Tool) {
	r.tools = append(r.tools, t)
	r.toolIndex[t.Name] = t
}

func (r *Registry) RegisterResource(res *Resource) {
	r.resources = append(r.resources, res)
	r.resIndex[res.URI] = res
}

func (r *Registry) Tool(name string) (*Tool, bool) {
	t, ok := r.toolIndex[name]
	return t, ok
}

func (r *Registry) Tools() []*Tool {
	return r.tools
}

func (r *Registry) Resource(uri string) (*Resource, bool) {
	res, ok := r.resIndex[uri]
	return res, ok
}

func (r *Registry) Resources() []*Resource {
	return r.resources
}

// ValidateArgs checks args against a tool's declared input schema:
// required fields must be present and typed fields must match. It
// keeps schema violations distinct from handler failures.
func ValidateArgs(schema map[string]any, args map[string]any) error {
	props, _ := schema["properties"].(map[string]any)

	if required, ok := schema["required"].([]any); ok {
		for _, f := range required {
			name, _ := f.(string)
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	for name, v := range args {
		spec, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		typ, _ := spec["type"].(string)
		if !matchesType(typ, v) {
			return fmt.Errorf("argument %q must be a %s", name, typ)
		}
	}
	return nil
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number", "integer":
		_, ok := v.(float64)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}
