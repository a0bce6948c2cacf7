package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

const apiPrefix = "/api/v1/judge"

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "judge",
			Action:       "run",
			Method:       "POST",
			PathTemplate: apiPrefix + "/run",
			Fields: []Field{
				{Name: "code", Prompt: "code", Type: FieldString, Required: true, FileField: "code_file"},
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language", Type: FieldString},
				{Name: "input", Prompt: "input", Type: FieldString, FileField: "input_file"},
				{Name: "code_file", Aliases: []string{"file"}, Prompt: "code_file", Type: FieldFile},
				{Name: "input_file", Prompt: "input_file", Type: FieldFile},
			},
		},
		{
			Service:      "judge",
			Action:       "submit",
			Method:       "POST",
			PathTemplate: apiPrefix + "/submit",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "problem_id", Aliases: []string{"problem"}, Prompt: "problem_id", Type: FieldInt64, Required: true},
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language", Type: FieldString, Required: true},
				{Name: "code", Prompt: "code", Type: FieldString, Required: true, FileField: "code_file"},
				{Name: "code_file", Aliases: []string{"file"}, Prompt: "code_file", Type: FieldFile},
			},
		},
		{
			Service:      "judge",
			Action:       "status",
			Method:       "GET",
			PathTemplate: apiPrefix + "/submissions/:id/status",
			Fields: []Field{
				{Name: "id", Prompt: "submission_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "judge",
			Action:       "submission",
			Method:       "GET",
			PathTemplate: apiPrefix + "/submissions/:id",
			Fields: []Field{
				{Name: "id", Prompt: "submission_id", Type: FieldString, Required: true},
			},
		},
		{
			Service:      "judge",
			Action:       "languages",
			Method:       "GET",
			PathTemplate: apiPrefix + "/languages",
		},
		{
			Service:      "problem",
			Action:       "get",
			Method:       "GET",
			PathTemplate: apiPrefix + "/problems/:id",
			Fields: []Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt64, Required: true},
			},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
		Body:    body,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	path := template
	if strings.Contains(path, ":id") {
		value := strings.TrimSpace(params.Get("id"))
		if value == "" {
			return "", fmt.Errorf("missing path parameter: id")
		}
		path = strings.ReplaceAll(path, ":id", value)
	}
	return path, nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	if cmd.Service != "judge" {
		return nil, nil
	}
	switch cmd.Action {
	case "run":
		return buildRunPayload(params)
	case "submit":
		return buildSubmitPayload(params)
	}
	return nil, nil
}

func buildRunPayload(params Params) (interface{}, error) {
	code, err := params.Resolve("code", "code_file")
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	input, err := params.Resolve("input", "input_file")
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"code":  code,
		"input": input,
	}
	if lang := params.Get("language"); lang != "" {
		payload["language"] = lang
	}
	return payload, nil
}

func buildSubmitPayload(params Params) (interface{}, error) {
	problemID, err := ParseInt64(params.Get("problem_id"))
	if err != nil {
		return nil, fmt.Errorf("invalid problem_id: %w", err)
	}
	code, err := params.Resolve("code", "code_file")
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	return map[string]interface{}{
		"problemId": problemID,
		"language":  params.Get("language"),
		"code":      code,
	}, nil
}
