package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/kitbash/pkg/cache"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/render/sink"
	"github.com/matzehuels/kitbash/pkg/store"
)

const manifest = `
name = "robot"

[canvas]
width = 16
height = 16
background = "#000000"

[[nodes]]
name = "body"
source = "parts/body.png"

[[nodes]]
kind = "group"
name = "head"
offset = [4, 4]

  [[nodes.children]]
  name = "face"
  source = "parts/face.png"
`

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// form builds a multipart body. Keys of files become file fields.
func form(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func robotUpload(t *testing.T) (*bytes.Buffer, string) {
	return form(t,
		map[string]string{"manifest": manifest},
		map[string][]byte{
			"parts/body.png": pngBytes(t, 8, 8, color.NRGBA{R: 255, A: 255}),
			"parts/face.png": pngBytes(t, 2, 2, color.NRGBA{B: 255, A: 255}),
		})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{Store: fs, Runner: pipeline.NewRunner(fc, nil, nil)})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCompose(t *testing.T) {
	ts := newTestServer(t)

	body, ct := robotUpload(t)
	resp, err := http.Post(ts.URL+"/v1/compose?format=png&scale=2", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %+v", resp.StatusCode, decodeError(t, resp))
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if resp.Header.Get("X-Kitbash-Scene") == "" {
		t.Error("missing X-Kitbash-Scene header")
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("size = %dx%d, want 32x32", b.Dx(), b.Dy())
	}
	// face at (4,4) on the base canvas, doubled by the export scale
	if got := color.NRGBAModel.Convert(img.At(9, 9)).(color.NRGBA); got.B != 255 {
		t.Errorf("pixel (9,9) = %v, want face blue", got)
	}
}

func TestComposeFormats(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		format      string
		contentType string
	}{
		{"json", "application/json"},
		{"zip", "application/zip"},
		{"layers", "application/zip"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			body, ct := robotUpload(t)
			resp, err := http.Post(ts.URL+"/v1/compose?format="+tt.format, ct, body)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
		})
	}
}

func TestComposeLayersArchive(t *testing.T) {
	ts := newTestServer(t)
	body, ct := robotUpload(t)
	resp, err := http.Post(ts.URL+"/v1/compose?format=layers", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	entries, err := sink.ReadArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "0_body.png" || entries[1].Name != "1_face.png" {
		t.Errorf("entries = %d", len(entries))
	}
}

func TestComposeRefresh(t *testing.T) {
	ts := newTestServer(t)

	for i, tt := range []struct {
		query string
		want  string
	}{
		{"?format=png", "miss"},
		{"?format=png", "hit"},
		{"?format=png&refresh=1", "miss"},
		{"?format=png&refresh=true", "miss"},
		{"?format=png&refresh=0", "hit"},
	} {
		body, ct := robotUpload(t)
		resp, err := http.Post(ts.URL+"/v1/compose"+tt.query, ct, body)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d (%s) status = %d", i, tt.query, resp.StatusCode)
		}
		if got := resp.Header.Get("X-Kitbash-Cache"); got != tt.want {
			t.Errorf("request %d (%s) cache = %q, want %q", i, tt.query, got, tt.want)
		}
	}
}

func TestComposeDetailedSVG(t *testing.T) {
	ts := newTestServer(t)

	for _, tt := range []struct {
		query      string
		wantDetail bool
	}{
		{"?format=svg", false},
		{"?format=svg&detailed=1", true},
	} {
		body, ct := robotUpload(t)
		resp, err := http.Post(ts.URL+"/v1/compose"+tt.query, ct, body)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", tt.query, resp.StatusCode)
		}
		if got := bytes.Contains(buf.Bytes(), []byte("size: 8x8")); got != tt.wantDetail {
			t.Errorf("%s: detailed label present = %v, want %v", tt.query, got, tt.wantDetail)
		}
	}
}

func TestComposeErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		fields     map[string]string
		files      map[string][]byte
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing manifest",
			files:      map[string][]byte{"parts/body.png": pngBytes(t, 2, 2, color.NRGBA{A: 255})},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "bad manifest",
			fields:     map[string]string{"manifest": "[canvas]\nwidth = 2\n"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CANVAS",
		},
		{
			name:       "missing asset",
			fields:     map[string]string{"manifest": manifest},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE_NOT_FOUND",
		},
		{
			name:   "undecodable asset",
			fields: map[string]string{"manifest": manifest},
			files: map[string][]byte{
				"parts/body.png": []byte("not an image"),
				"parts/face.png": []byte("nope"),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "DECODE_FAILED",
		},
		{
			name:       "bad format",
			query:      "?format=pdf",
			fields:     map[string]string{"manifest": manifest},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name:       "non-boolean refresh",
			query:      "?refresh=yes",
			fields:     map[string]string{"manifest": manifest},
			files:      map[string][]byte{"parts/body.png": pngBytes(t, 2, 2, color.NRGBA{A: 255}), "parts/face.png": pngBytes(t, 2, 2, color.NRGBA{A: 255})},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "non-boolean detailed",
			query:      "?format=svg&detailed=full",
			fields:     map[string]string{"manifest": manifest},
			files:      map[string][]byte{"parts/body.png": pngBytes(t, 2, 2, color.NRGBA{A: 255}), "parts/face.png": pngBytes(t, 2, 2, color.NRGBA{A: 255})},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "traversal asset name",
			fields:     map[string]string{"manifest": manifest},
			files:      map[string][]byte{"../escape.png": []byte("x")},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PATH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := form(t, tt.fields, tt.files)
			resp, err := http.Post(ts.URL+"/v1/compose"+tt.query, ct, body)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := decodeError(t, resp); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (%s)", got.Code, tt.wantCode, got.Message)
			}
		})
	}
}

func TestProjectLifecycle(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()

	body, ct := robotUpload(t)
	resp, err := client.Post(ts.URL+"/v1/projects", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	var created projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.Name != "robot" || len(created.Assets) != 2 {
		t.Errorf("created = %+v", created)
	}

	resp, err = client.Get(ts.URL + "/v1/projects")
	if err != nil {
		t.Fatal(err)
	}
	var list []projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	resp, err = client.Get(ts.URL + "/v1/projects/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	var got projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got.Manifest != manifest {
		t.Error("manifest not returned verbatim")
	}

	render := ts.URL + "/v1/projects/" + created.ID + "/render.png"
	for i, want := range []string{"miss", "hit"} {
		resp, err = client.Get(render)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("render %d status = %d", i, resp.StatusCode)
		}
		if got := resp.Header.Get("X-Kitbash-Cache"); got != want {
			t.Errorf("render %d cache = %q, want %q", i, got, want)
		}
	}

	body, ct = form(t, nil, map[string][]byte{"parts/face.png": pngBytes(t, 3, 3, color.NRGBA{G: 255, A: 255})})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/v1/projects/"+created.ID, body)
	req.Header.Set("Content-Type", ct)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	resp, err = client.Get(render)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Kitbash-Cache"); got != "miss" {
		t.Errorf("render after update cache = %q, want miss", got)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/v1/projects/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, err = client.Get(ts.URL + "/v1/projects/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if got := decodeError(t, resp); got.Code != "PROJECT_NOT_FOUND" {
		t.Errorf("code = %q, want PROJECT_NOT_FOUND", got.Code)
	}
}

func TestProjectInvalidID(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/projects/not-a-uuid/render.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProjectsWithoutStore(t *testing.T) {
	ts := httptest.NewServer(New(Config{}).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/projects")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_MANIFEST", http.StatusBadRequest},
		{"DECODE_FAILED", http.StatusUnprocessableEntity},
		{"NOT_FOUND", http.StatusNotFound},
		{"NETWORK_ERROR", http.StatusBadGateway},
		{"TIMEOUT", http.StatusGatewayTimeout},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errs.Code(tt.code)); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
