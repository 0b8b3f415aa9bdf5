package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphsBecomeSections(t *testing.T) {
	input := "DATABASE SETTINGS:\nShared buffers are sized at 12% of RAM.\n\nThe checkpoint interval averaged 14 minutes.\n\nNo parameter drift detected since the last review."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "ewa-summary.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "ewa-summary" {
		t.Errorf("expected title %q, got %q", "ewa-summary", tree.Title)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(tree.Children))
	}

	want := []string{
		"DATABASE SETTINGS:\nShared buffers are sized at 12% of RAM.",
		"The checkpoint interval averaged 14 minutes.",
		"No parameter drift detected since the last review.",
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, tree.Children[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", tree.Title)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader("CPU utilization peaked at 74%."), "cpu.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "cpu" {
		t.Errorf("expected title %q, got %q", "cpu", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "CPU utilization peaked at 74%." {
		t.Errorf("unexpected text %q", tree.Children[0].Text)
	}
}

func TestTextParser_BlankRunsCollapse(t *testing.T) {
	// Runs of blank lines must not produce empty sections, and
	// whitespace-only lines count as blank.
	input := "Workload volume grew 8% quarter over quarter.\n\n\n\nResponse times held steady.\n   \nNo expensive statements flagged."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "trends.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(tree.Children))
	}
	for i, c := range tree.Children {
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("child[%d] is empty", i)
		}
	}
}
