package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{{"search"}, {"snapshot", "get"}, {"snapshot", "export"}} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if cmd.Name() != path[len(path)-1] {
			t.Fatalf("find %v resolved to %q", path, cmd.Name())
		}
	}
}

func TestSearchRequiresQueryArgument(t *testing.T) {
	root := rootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"search"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "accepts 1 arg") {
		t.Fatalf("expected argument error, got %v", err)
	}
}

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]string{"id": "0a1b2c3d"}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "{\n  \"id\": \"0a1b2c3d\"\n}\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
