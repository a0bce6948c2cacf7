package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt64
	FieldFile
)

// fileMarker stands in for a value that will be read from the paired file field.
const fileMarker = "_file_"

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
	// FileField names the FieldFile whose content can supply this value.
	FileField string
}

// Command defines a CLI command binding.
type Command struct {
	Service      string
	Action       string
	Method       string
	PathTemplate string
	RequiresAuth bool
	Fields       []Field
}

// Key is the "service action" lookup key.
func (c Command) Key() string {
	return c.Service + " " + c.Action
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// MarkFileBacked flags required fields whose file field was given so they are not prompted for.
func (p Params) MarkFileBacked(fields []Field) {
	for _, field := range fields {
		if field.FileField == "" {
			continue
		}
		if p.Get(field.FileField) != "" && p.Get(field.Name) == "" {
			p.Set(field.Name, fileMarker)
		}
	}
}

// Missing lists required fields that still have no value.
func (p Params) Missing(fields []Field) []Field {
	var out []Field
	for _, field := range fields {
		if field.Required && p.Get(field.Name) == "" {
			out = append(out, field)
		}
	}
	return out
}

// Resolve returns the value of name, reading it from fileKey when the value is absent or marked.
func (p Params) Resolve(name, fileKey string) (string, error) {
	value := p.Get(name)
	if (value == "" || value == fileMarker) && fileKey != "" && p.Get(fileKey) != "" {
		return ReadFile(p.Get(fileKey))
	}
	if value == fileMarker {
		return "", nil
	}
	return value, nil
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}
