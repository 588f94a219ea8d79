package main

import (
	"testing"
	"time"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--json", "--http=http://localhost:9000", "--timeout", "5s", "status",
	})
	if err != nil {
		t.Fatalf("parseGlobalFlags: %v", err)
	}
	if !flags.JSON {
		t.Error("JSON flag not set")
	}
	if flags.HTTPURL != "http://localhost:9000" {
		t.Errorf("http url = %q", flags.HTTPURL)
	}
	if flags.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", flags.Timeout)
	}
	if len(args) != 1 || args[0] != "status" {
		t.Errorf("args = %v", args)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--timeout", "soon"}); err == nil {
		t.Error("invalid timeout should fail")
	}
	if _, _, err := parseGlobalFlags([]string{"--config"}); err == nil {
		t.Error("missing config value should fail")
	}
	if _, _, err := parseGlobalFlags([]string{"--frobnicate"}); err == nil {
		t.Error("unknown flag should fail")
	}
}

func TestParseGlobalFlagsSeparator(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{"--json", "--", "--not-a-flag"})
	if err != nil {
		t.Fatalf("parseGlobalFlags: %v", err)
	}
	if !flags.JSON {
		t.Error("JSON flag not set")
	}
	if len(args) != 1 || args[0] != "--not-a-flag" {
		t.Errorf("args = %v", args)
	}
}
