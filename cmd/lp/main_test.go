package main

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/viper"

	"leadpilot/internal/rules"
)

// Compile failures must exit non-zero in --json mode too, so scripting
// callers can branch on the exit code instead of parsing the payload.
func TestRulesCompileJSONModeStillFails(t *testing.T) {
	viper.Set("workspace", t.TempDir())
	viper.Set("json", true)
	viper.Set("business", "biz-1")
	t.Cleanup(viper.Reset)

	cmd := rulesCompileCmd()
	cmd.SetContext(context.Background())
	if err := cmd.Flags().Set("text", "   "); err != nil {
		t.Fatal(err)
	}
	err := cmd.RunE(cmd, nil)
	if err == nil {
		t.Fatalf("failed compile must return an error in json mode")
	}
	var cerr *rules.CompileError
	if !errors.As(err, &cerr) || cerr.Code != rules.CodeEmptyInput {
		t.Fatalf("expected EmptyInput compile error, got %v", err)
	}
}
