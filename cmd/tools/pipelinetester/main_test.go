package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
)

func TestProcessRequiresAudioFlag(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"process"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error without --audio")
	}
}

func TestPrintResponse(t *testing.T) {
	out := &bytes.Buffer{}
	printResponse(out, &therapy.Response{
		TherapyOutput: "- Exercise: easy onset",
		DetectedEvents: []therapy.DysfluencyEvent{
			{Label: "block", Start: 1.2, End: 1.55, Confidence: therapy.Confidence(0.8)},
			{Start: 2, End: 2.5},
		},
	}, 1500*time.Millisecond)

	text := out.String()
	for _, want := range []string{
		"检测到 2 个事件",
		"block 1.20s-1.55s confidence=0.80",
		"unknown 2.00s-2.50s confidence=n/a",
		"- Exercise: easy onset",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}
