package adapterinfo

import "testing"

func TestInfoLoadedFromSourceTree(t *testing.T) {
	if Info.Slug != "tts-srt-voice" {
		t.Fatalf("Slug = %q", Info.Slug)
	}
	if Info.BinaryName != "srt-voice-adapter" {
		t.Fatalf("BinaryName = %q", Info.BinaryName)
	}
	if Version() == "" {
		t.Fatal("version must not be empty")
	}
}

func TestParseManifestDefaults(t *testing.T) {
	meta, err := ParseManifest([]byte("metadata:\n  slug: demo\n  version: 1.2.3\n"))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if meta.Name != "demo" || meta.Description != "demo" || meta.BinaryName != "demo" || meta.GeneratorID != "demo" {
		t.Fatalf("defaults not applied: %+v", meta)
	}
	if meta.Transport != "grpc" {
		t.Fatalf("Transport = %q", meta.Transport)
	}
}

func TestParseManifestErrors(t *testing.T) {
	cases := map[string]string{
		"no version": "metadata:\n  slug: demo\n",
		"no slug":    "metadata:\n  version: 1.0.0\n",
		"bad yaml":   "metadata: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSynthesisMetadata(t *testing.T) {
	md := SynthesisMetadata("index-tts-2", "wsola")
	if md["generator"] != Info.GeneratorID || md["model"] != "index-tts-2" || md["stretcher"] != "wsola" {
		t.Fatalf("unexpected metadata %v", md)
	}
}
