package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/matzehuels/kitbash/pkg/buildinfo"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/render/sink"
	"github.com/matzehuels/kitbash/pkg/source"
)

var contentTypes = map[string]string{
	pipeline.FormatPNG:    "image/png",
	pipeline.FormatJSON:   "application/json",
	pipeline.FormatZIP:    "application/zip",
	pipeline.FormatLayers: "application/zip",
	pipeline.FormatSVG:    "image/svg+xml",
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(up.manifest) == 0 {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "missing %q field", manifestField))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	s.render(w, r, s.runner, up.manifest, up.assets, format)
}

// render builds the uploaded project and writes one artifact.
func (s *Server) render(w http.ResponseWriter, r *http.Request, runner *pipeline.Runner, manifest []byte, assets map[string][]byte, format string) {
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := project.Parse(manifest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	src := source.NewMulti(source.Memory(assets), s.remote)
	t, canvas, err := project.Build(r.Context(), m, src)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	if v := q.Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidCanvas, "scale must be an integer, got %q", v))
			return
		}
		canvas.Scale = n
	}
	detailed, err := queryBool(q, "detailed")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(q, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := runner.Execute(r.Context(), t, pipeline.Options{
		Canvas:   canvas,
		Formats:  []string{format},
		Detailed: detailed,
		Refresh:  refresh,
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := res.Artifacts[format]
	if format == pipeline.FormatLayers {
		if data, err = sink.RenderArchive(res.Layers); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	cacheState := "miss"
	if res.CacheInfo.RenderHit {
		cacheState = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Kitbash-Scene", res.SceneHash)
	h.Set("X-Kitbash-Cache", cacheState)
	h.Set("X-Kitbash-Version", buildinfo.Version)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// queryBool reads an optional boolean flag such as ?refresh=1. Absent means
// false; anything strconv.ParseBool rejects is an input error.
func queryBool(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.New(errs.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}
