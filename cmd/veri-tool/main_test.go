package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `o panel
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3 4
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeScene(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "frames", "0001.png"), "png")
	writeFile(t, filepath.Join(dir, "frames", "0002.png"), "png")
	writeFile(t, filepath.Join(dir, "panel.obj"), quadOBJ)
	path := filepath.Join(dir, "scene.yaml")
	writeFile(t, path, yaml)
	return path
}

func TestValidate(t *testing.T) {
	path := writeScene(t, `
video:
  src: frames
objects:
  panel:
    resource: panel.obj
`)
	var out bytes.Buffer
	if err := runValidate(&out, path); err != nil {
		t.Fatalf("runValidate() error = %v\n%s", err, out.String())
	}
	for _, want := range []string{"object panel", "1 parts, 1 faces", "2 frames", "mono", "ok"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestValidateProblems(t *testing.T) {
	path := writeScene(t, `
video:
  src: frames
objects:
  ghost:
    resource: ghost.obj
audio:
  type: positional
  src: missing.wav
`)
	var out bytes.Buffer
	err := runValidate(&out, path)
	if err == nil {
		t.Fatal("runValidate() expected an error")
	}
	if !strings.Contains(err.Error(), "2 problem(s)") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(out.String(), "problem: objects.ghost") {
		t.Errorf("output missing object problem:\n%s", out.String())
	}
}

func TestValidateInvalidConfig(t *testing.T) {
	path := writeScene(t, "stereoscopic: diagonal\n")
	if err := runValidate(&bytes.Buffer{}, path); err == nil {
		t.Error("runValidate() accepted an invalid config")
	}
}

func TestTargets(t *testing.T) {
	path := writeScene(t, `
video:
  src: frames
crosshairs:
  type: animated-crosshairs
  targets:
    - id: door
      direction: {x: 0, y: 0, z: -1}
    - id: window
      direction: {x: 0.1, y: 0, z: -1}
    - id: floor
      orientation: {theta: 90, phi: 0}
`)
	var out bytes.Buffer
	if err := runTargets(&out, path); err != nil {
		t.Fatalf("runTargets() error = %v", err)
	}
	s := out.String()
	for _, want := range []string{"door", "window", "floor", "warning: door and window overlap"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "floor overlap") || strings.Contains(s, "and floor") {
		t.Errorf("floor reported as overlapping:\n%s", s)
	}
}

func TestTargetsNone(t *testing.T) {
	path := writeScene(t, "video:\n  src: frames\n")
	var out bytes.Buffer
	if err := runTargets(&out, path); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "no targets" {
		t.Errorf("output = %q", out.String())
	}
}

func TestUVMap(t *testing.T) {
	path := writeScene(t, "video:\n  src: frames\nstereoscopic: top-to-bottom\n")

	var out bytes.Buffer
	if err := runUVMap(&out, path, ""); err != nil {
		t.Fatalf("runUVMap() error = %v", err)
	}
	s := out.String()
	left := s[:strings.Index(s, "right eye")]
	right := s[strings.Index(s, "right eye"):]
	if !strings.Contains(left, "(0, 0) -> (0.000, 0.500)") {
		t.Errorf("left eye mapping:\n%s", left)
	}
	if !strings.Contains(right, "(1, 1) -> (1.000, 0.500)") {
		t.Errorf("right eye mapping:\n%s", right)
	}

	out.Reset()
	if err := runUVMap(&out, path, "left-to-right"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(0, 0) -> (0.500, 0.000)") {
		t.Errorf("left-to-right right eye:\n%s", out.String())
	}

	if err := runUVMap(&out, path, "diagonal"); err == nil {
		t.Error("runUVMap() accepted an unknown mode")
	}
}

func TestUVMapMono(t *testing.T) {
	path := writeScene(t, "video:\n  src: frames\n")
	var out bytes.Buffer
	if err := runUVMap(&out, path, ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "mono source") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRootCommand(t *testing.T) {
	path := writeScene(t, "video:\n  src: frames\n")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "ok") {
		t.Errorf("output = %q", out.String())
	}

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"targets"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() accepted a missing argument")
	}
}
