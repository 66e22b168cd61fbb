package cookies

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate_AllPlatformsPresent(t *testing.T) {
	set := NewGenerator("unused.json", testLogger()).Generate()

	for _, platform := range []string{"instagram", "instagram_bearer", "reddit", "twitter", "youtube"} {
		values, ok := set[platform]
		if !ok {
			t.Errorf("platform %q missing", platform)
			continue
		}
		if len(values) == 0 {
			t.Errorf("platform %q has no entries", platform)
		}
	}

	if len(set["instagram_bearer"]) != 2 {
		t.Errorf("instagram_bearer should carry two tokens, got %d", len(set["instagram_bearer"]))
	}
}

func TestGenerate_CookieShapes(t *testing.T) {
	set := NewGenerator("unused.json", testLogger()).Generate()

	instagram := set["instagram"][0]
	for _, key := range []string{"mid=", "ig_did=", "csrftoken=", "ds_user_id=", "sessionid="} {
		if !strings.Contains(instagram, key) {
			t.Errorf("instagram cookie missing %q: %s", key, instagram)
		}
	}

	igDid := regexp.MustCompile(`ig_did=([0-9a-f]+)`).FindStringSubmatch(instagram)
	if igDid == nil || len(igDid[1]) != 32 {
		t.Errorf("ig_did should be 32 hex chars: %s", instagram)
	}

	if !strings.HasPrefix(set["instagram_bearer"][1], "token=IGT:2:") {
		t.Errorf("second bearer token malformed: %s", set["instagram_bearer"][1])
	}

	twitter := set["twitter"][0]
	if !strings.Contains(twitter, "auth_token=") || !strings.Contains(twitter, "ct0=") {
		t.Errorf("twitter cookie malformed: %s", twitter)
	}
}

func TestGenerate_ValuesDiffer(t *testing.T) {
	gen := NewGenerator("unused.json", testLogger())

	a := gen.Generate()["twitter"][0]
	b := gen.Generate()["twitter"][0]
	if a == b {
		t.Error("consecutive generations produced identical cookies")
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	gen := NewGenerator(path, testLogger())

	if gen.FileExists() {
		t.Fatal("file should not exist yet")
	}
	if err := gen.WriteFile(); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !gen.FileExists() {
		t.Fatal("file should exist after write")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cookies: %v", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("cookie file is not valid JSON: %v", err)
	}
	if len(set) != 5 {
		t.Errorf("cookie file has %d platforms, want 5", len(set))
	}
}

func TestWriteFile_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cookies.json")

	if err := NewGenerator(path, testLogger()).WriteFile(); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cookie file missing: %v", err)
	}
}

func TestRefresher_WritesInitialFileAndStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	gen := NewGenerator(path, testLogger())

	r := NewRefresher(gen, time.Hour, testLogger())
	r.Start()

	if !gen.FileExists() {
		t.Error("refresher should write the initial file on start")
	}

	if err := r.Stop(time.Second); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestRefresher_RewritesOnTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	gen := NewGenerator(path, testLogger())

	r := NewRefresher(gen, 10*time.Millisecond, testLogger())
	r.Start()
	defer r.Stop(time.Second)

	initial, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read initial: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("cookie file was never rewritten")
		case <-time.After(20 * time.Millisecond):
		}
		current, err := os.ReadFile(path)
		if err != nil {
			continue // mid-write
		}
		if string(current) != string(initial) && len(current) > 0 {
			return
		}
	}
}
