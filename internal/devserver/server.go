// Package devserver serves component sources, docs and the catalog to the
// docs site during development.
package devserver

import (
	"context"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"componentgen/internal/catalog"
	"componentgen/internal/pathmap"
	"componentgen/internal/safeio"
	"componentgen/internal/scan"
)

// NoDocs is returned by /__doc__ while a doc page is absent or pending.
const NoDocs = "> No docs yet"

// FS is the filesystem the server reads through. Stat feeds the cache key.
type FS interface {
	safeio.FS
	Stat(path string) (fs.FileInfo, error)
}

type Options struct {
	// SourcePrefix is the only site path /__source__ serves from.
	SourcePrefix string
	AllowOrigin  string
	CacheSize    int
	Titles       map[string]string
}

type Server struct {
	fs     FS
	walker *scan.Walker
	mapper *pathmap.Mapper
	opts   Options
	log    *log.Logger
	cache  *lru.Cache[string, []byte]
	app    *fiber.App
}

type errorResponse struct {
	Error string `json:"error"`
}

type sourceResponse struct {
	Content string `json:"content"`
}

func New(fsys FS, w *scan.Walker, m *pathmap.Mapper, opts Options, logger *log.Logger) (*Server, error) {
	if opts.SourcePrefix == "" {
		opts.SourcePrefix = "/" + m.Label() + "/components/"
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 256
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "devserver: init cache")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{fs: fsys, walker: w, mapper: m, opts: opts, log: logger, cache: cache}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:  s.handleError,
		StrictRouting: true,
	})
	s.app.Use(s.cors)
	s.app.Get("/__source__", s.source)
	s.app.Get("/__doc__", s.doc)
	s.app.Get("/__catalog__", s.catalog)
	s.app.Get("/__sidebar__", s.sidebar)
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	s.log.Info("dev server listening", "addr", addr)
	select {
	case err := <-errCh:
		return errors.Wrap(err, "devserver: listen")
	case <-ctx.Done():
		return s.app.ShutdownWithContext(context.WithoutCancel(ctx))
	}
}

func (s *Server) cors(c fiber.Ctx) error {
	if s.opts.AllowOrigin != "" {
		c.Set(fiber.HeaderAccessControlAllowOrigin, s.opts.AllowOrigin)
	}
	return c.Next()
}

func (s *Server) source(c fiber.Ctx) error {
	p := c.Query("path")
	if p == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required query parameter: path")
	}
	if !underPrefix(p, s.opts.SourcePrefix) || !strings.HasSuffix(p, ".vue") {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid path. Must be a .vue file under "+s.opts.SourcePrefix)
	}
	content, err := s.read(p)
	if err != nil {
		s.log.Warn("source read failed", "path", p, "err", err)
		return fiber.NewError(fiber.StatusNotFound, "File not found or permission denied")
	}
	return c.JSON(sourceResponse{Content: string(content)})
}

func (s *Server) doc(c fiber.Ctx) error {
	p := c.Query("path")
	prefix := "/" + pathmap.DocTarget.Label + "/"
	if p == "" || !underPrefix(p, prefix) || !strings.HasSuffix(p, pathmap.DocTarget.Ext) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid path. Must be a "+pathmap.DocTarget.Ext+" file under "+prefix)
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	content, err := s.read(p)
	if err != nil || len(strings.TrimSpace(string(content))) == 0 {
		return c.SendString(NoDocs)
	}
	return c.Send(content)
}

func (s *Server) catalog(c fiber.Ctx) error {
	entries, err := catalog.Build(c.Context(), s.walker, s.fs, s.mapper)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (s *Server) sidebar(c fiber.Ctx) error {
	entries, err := catalog.Build(c.Context(), s.walker, s.fs, s.mapper)
	if err != nil {
		return err
	}
	return c.JSON(catalog.Sidebar(entries, s.opts.Titles))
}

// read loads a site path through the cache. Entries are keyed by path, size
// and modification time, so edits invalidate them.
func (s *Server) read(sitePath string) ([]byte, error) {
	rel := strings.TrimPrefix(path.Clean(sitePath), "/")
	info, err := s.fs.Stat(rel)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.Newf("devserver: %s is a directory", sitePath)
	}
	key := rel + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if b, ok := s.cache.Get(key); ok {
		return b, nil
	}
	b, err := s.fs.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, b)
	return b, nil
}

func underPrefix(p, prefix string) bool {
	if strings.Contains(p, "\\") {
		return false
	}
	clean := path.Clean(p)
	return strings.HasPrefix(p, prefix) && strings.HasPrefix(clean, prefix)
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorResponse{Error: fe.Message})
	}
	s.log.Error("request failed", "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
}
