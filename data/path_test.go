package data

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Textures/Rock.png", "/textures/rock.png"},
		{"/Textures/Rock.png", "/textures/rock.png"},
		{"textures\\hero\\Skin.PNG", "/textures/hero/skin.png"},
		{"/textures/", "/textures"},
		{"/", "/"},
		{"//double//slash", "/double/slash"},
		{"/a/./b", "/a/b"},
		{"/a/../b", "/b"},
	}

	for _, tc := range cases {
		got, err := NormalizePath(tc.input)
		if err != nil {
			t.Fatalf("NormalizePath(%q) failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizePath_Invalid(t *testing.T) {
	for _, input := range []string{"", "../escape", "/../escape", "/a/../../b", "/.."} {
		if _, err := NormalizePath(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	if got := BaseName("/textures/rock.png"); got != "rock" {
		t.Errorf("BaseName = %q, want %q", got, "rock")
	}

	if got := Extension("/textures/Rock.PNG"); got != ".png" {
		t.Errorf("Extension = %q, want %q", got, ".png")
	}

	if got := Extension("/textures/noext"); got != "" {
		t.Errorf("Extension = %q, want empty", got)
	}

	if got := ParentDir("/textures/rock.png"); got != "/textures" {
		t.Errorf("ParentDir = %q, want %q", got, "/textures")
	}

	if got := ParentDir("/"); got != "/" {
		t.Errorf("ParentDir of root = %q, want %q", got, "/")
	}
}

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"/textures/rock.png", "/textures", true},
		{"/textures", "/textures", true},
		{"/textures2/rock.png", "/textures", false},
		{"/textures/rock.png", "/", true},
		{"/models/tree.obj", "/textures", false},
	}

	for _, tc := range cases {
		if got := HasPathPrefix(tc.path, tc.prefix); got != tc.want {
			t.Errorf("HasPathPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.want)
		}
	}
}

func TestSidecarPath(t *testing.T) {
	if got := SidecarPath("/textures/rock.png"); got != "/textures/rock.png.meta" {
		t.Errorf("SidecarPath = %q", got)
	}

	if !IsSidecarPath("/textures/rock.png.meta") {
		t.Error("expected sidecar path to be recognized")
	}

	if IsSidecarPath("/textures/rock.png") {
		t.Error("source path misidentified as sidecar")
	}
}
