package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	src := "listen_addr 0.0.0.0:6399\n" +
		"databases 8\n" +
		"rdb_path /tmp/gkvs.snapshot\n" +
		"rdb_auto_save_secs 60"
	p := parse(strings.NewReader(src))
	if p == nil {
		t.Error("cannot get result")
		return
	}
	if p.ListenAddr != "0.0.0.0:6399" {
		t.Error("string parse failed")
	}
	if p.Databases != 8 {
		t.Error("int parse failed")
	}
	if p.RDBPath != "/tmp/gkvs.snapshot" {
		t.Error("string parse failed")
	}
	if p.RDBAutoSaveSecs != 60 {
		t.Error("int parse failed")
	}
}

func TestIsImmutableConfig(t *testing.T) {
	if !IsImmutableConfig("databases") {
		t.Error("expected databases to be immutable")
	}
	if IsImmutableConfig("maxmemory_policy") {
		t.Error("expected maxmemory_policy to be mutable")
	}
}
