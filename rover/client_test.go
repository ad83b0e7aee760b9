package rover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sndcds/redrovr/catalog"
)

const probeBody = `{"photos":[
	{"id":1,"sol":0,"img_src":"http://mars.jpl.nasa.gov/a.JPG","earth_date":"2012-08-06",
	 "camera":{"name":"FHAZ"},"rover":{"name":"Curiosity","max_sol":4102}}
]}`

const listingBody = `{"photos":[
	{"id":10,"sol":4102,"img_src":"http://mars.jpl.nasa.gov/msl/b.JPG","earth_date":"2024-02-19",
	 "camera":{"name":"NAVCAM","full_name":"Navigation Camera"},"rover":{"name":"Curiosity","max_sol":4102}},
	{"id":11,"sol":4102,"img_src":"http://mars.jpl.nasa.gov/msl/c.png","earth_date":"2024-02-19",
	 "camera":{"name":"CHEMCAM"},"rover":{"name":"Curiosity","max_sol":4102}}
]}`

type solLog struct {
	mu   sync.Mutex
	sols []string
}

func (l *solLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sols = append(l.sols, s)
}

func (l *solLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.sols...)
}

func newTestServer(t *testing.T) (*httptest.Server, *solLog) {
	t.Helper()
	sols := &solLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rovers/curiosity/photos" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		sol := r.URL.Query().Get("sol")
		sols.add(sol)
		w.Header().Set("Content-Type", "application/json")
		if sol == "0" {
			w.Write([]byte(probeBody))
			return
		}
		w.Write([]byte(listingBody))
	}))
	t.Cleanup(server.Close)
	return server, sols
}

func TestClientMaxSolAndPhotos(t *testing.T) {
	server, sols := newTestServer(t)
	c := NewClient(Options{BaseURL: server.URL, APIKey: "secret"})
	ctx := context.Background()

	maxSol, err := c.MaxSol(ctx)
	if err != nil {
		t.Fatalf("MaxSol failed: %v", err)
	}
	if maxSol != 4102 {
		t.Errorf("expected max sol 4102, got %d", maxSol)
	}

	photos, err := c.Photos(ctx, maxSol)
	if err != nil {
		t.Fatalf("Photos failed: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}
	if photos[0].Camera.Name != "NAVCAM" || photos[0].EarthDate != "2024-02-19" || photos[0].Sol != 4102 {
		t.Errorf("unexpected first photo %+v", photos[0])
	}

	if got := sols.get(); len(got) != 2 || got[0] != "0" || got[1] != "4102" {
		t.Errorf("unexpected sol sequence %v", got)
	}
}

func TestClientErrorsAreExternal(t *testing.T) {
	server, _ := newTestServer(t)
	c := NewClient(Options{BaseURL: server.URL, APIKey: "wrong"})

	if _, err := c.MaxSol(context.Background()); !catalog.IsExternal(err) {
		t.Errorf("expected external service error, got %v", err)
	}
	if _, err := c.Photos(context.Background(), 1); !catalog.IsExternal(err) {
		t.Errorf("expected external service error, got %v", err)
	}
}

func TestClientMalformedListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"photos": [`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	if _, err := c.Photos(context.Background(), 1); !catalog.IsExternal(err) {
		t.Errorf("expected external service error, got %v", err)
	}
}

func TestClientEmptyProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"photos": []}`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	if _, err := c.MaxSol(context.Background()); !catalog.IsExternal(err) {
		t.Errorf("expected external service error, got %v", err)
	}
}

func TestClientDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	data, err := c.Download(context.Background(), server.URL+"/ok.jpg")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("unexpected body %q", data)
	}
	if _, err := c.Download(context.Background(), server.URL+"/missing.jpg"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestParseCamera(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"MAHLI", true},
		{"fhaz", true},
		{" RHAZ ", true},
		{"NAVCAM", true},
		{"MAST", true},
		{"CHEMCAM", false},
		{"MARDI", false},
		{"MAS", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := ParseCamera(tt.name); ok != tt.ok {
			t.Errorf("ParseCamera(%q) = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}
