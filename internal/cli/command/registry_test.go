package command

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_Keys(t *testing.T) {
	commands := Registry()
	for _, key := range []string{"judge run", "judge submit", "judge status", "judge submission", "judge languages", "problem get"} {
		if _, ok := commands[key]; !ok {
			t.Errorf("missing command %q", key)
		}
	}
	if !commands["judge submit"].RequiresAuth {
		t.Error("submit should require auth")
	}
}

func TestBuildRequest_Paths(t *testing.T) {
	commands := Registry()
	tests := []struct {
		key    string
		params Params
		method string
		path   string
	}{
		{"judge status", Params{"id": "abc"}, "GET", "/api/v1/judge/submissions/abc/status"},
		{"judge submission", Params{"id": "abc"}, "GET", "/api/v1/judge/submissions/abc"},
		{"problem get", Params{"id": "7"}, "GET", "/api/v1/judge/problems/7"},
		{"judge languages", Params{}, "GET", "/api/v1/judge/languages"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			req, err := BuildRequest(commands[tt.key], tt.params)
			if err != nil {
				t.Fatalf("BuildRequest: %v", err)
			}
			if req.Method != tt.method || req.Path != tt.path {
				t.Errorf("got %s %s, want %s %s", req.Method, req.Path, tt.method, tt.path)
			}
			if req.Body != nil {
				t.Errorf("GET should have no body, got %s", req.Body)
			}
		})
	}
}

func TestBuildRequest_MissingPathParam(t *testing.T) {
	if _, err := BuildRequest(Registry()["judge status"], Params{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestBuildRequest_RunFromFiles(t *testing.T) {
	dir := t.TempDir()
	codePath := filepath.Join(dir, "main.py")
	inputPath := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(codePath, []byte("print(input())"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inputPath, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	params := Params{"lang": "python", "file": codePath, "input_file": inputPath}
	cmd := Registry()["judge run"]
	params.Canonicalize(cmd.Fields)
	params.MarkFileBacked(cmd.Fields)
	if missing := params.Missing(cmd.Fields); len(missing) != 0 {
		t.Fatalf("unexpected missing fields: %+v", missing)
	}

	req, err := BuildRequest(cmd, params)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["language"] != "python" || body["code"] != "print(input())" || body["input"] != "hello\n" {
		t.Errorf("body = %+v", body)
	}
}

func TestBuildRequest_RunOmitsLanguage(t *testing.T) {
	req, err := BuildRequest(Registry()["judge run"], Params{"code": "int main(){}"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["language"]; ok {
		t.Errorf("language should be left to the server default, body = %+v", body)
	}
}

func TestBuildRequest_Submit(t *testing.T) {
	req, err := BuildRequest(Registry()["judge submit"], Params{"problem": "3", "language": "cpp", "code": "int main(){}"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	var body struct {
		ProblemID int64  `json:"problemId"`
		Language  string `json:"language"`
		Code      string `json:"code"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ProblemID != 3 || body.Language != "cpp" || body.Code != "int main(){}" {
		t.Errorf("body = %+v", body)
	}
}

func TestBuildRequest_SubmitErrors(t *testing.T) {
	cmd := Registry()["judge submit"]
	tests := []struct {
		name   string
		params Params
	}{
		{"bad problem id", Params{"problem_id": "x", "language": "cpp", "code": "c"}},
		{"empty code", Params{"problem_id": "1", "language": "cpp"}},
		{"unreadable file", Params{"problem_id": "1", "language": "cpp", "code_file": "/nonexistent/main.cpp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildRequest(cmd, tt.params); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
