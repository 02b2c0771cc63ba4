package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseTopics(t *testing.T) {
	topics := ParseTopics(false, " battery, dbus ,,")
	if !topics[TopicBattery] || !topics[TopicDBus] {
		t.Fatalf("ParseTopics() = %v, want battery and dbus", topics)
	}
	if len(topics) != 2 {
		t.Fatalf("ParseTopics() len = %d, want 2", len(topics))
	}

	if !ParseTopics(true, "")[TopicAll] {
		t.Fatal("ParseTopics(verbose) missing all")
	}
}

func TestNew_FiltersByTopic(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, ParseTopics(false, TopicBattery))

	logger.With("topic", TopicBattery).Info("battery sample")
	logger.With("topic", TopicDBus).Info("dbus emit")
	logger.Info("startup", "topic", TopicLog)
	logger.Info("untagged")

	out := buf.String()
	if !strings.Contains(out, "battery sample") {
		t.Fatalf("output missing enabled topic record:\n%s", out)
	}
	if strings.Contains(out, "dbus emit") {
		t.Fatalf("output contains disabled topic record:\n%s", out)
	}
	if strings.Contains(out, "startup") {
		t.Fatalf("output contains disabled record-level topic:\n%s", out)
	}
	if !strings.Contains(out, "untagged") {
		t.Fatalf("output missing untagged record:\n%s", out)
	}
}

func TestNew_WarningsAlwaysPass(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, ParseTopics(false, ""))

	logger.With("topic", TopicDBus).Debug("hidden")
	logger.With("topic", TopicDBus).Warn("bus unavailable")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("output contains filtered debug record:\n%s", out)
	}
	if !strings.Contains(out, "bus unavailable") {
		t.Fatalf("output missing warning:\n%s", out)
	}
}

func TestNew_AllTopics(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, ParseTopics(true, ""))

	logger.WithGroup("g").With("topic", TopicDBus).Debug("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Fatalf("output missing record with all topics enabled:\n%s", buf.String())
	}
}
