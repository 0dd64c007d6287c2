// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/jcodagnone/shopmap/shops"
)

// Source tells where the data on display comes from.
type Source string

// Data sources reported by /api/status.
const (
	SourceNone     Source = "none"
	SourcePrevious Source = "previous"
	SourceUploaded Source = "uploaded"
)

// Status messages shown in the page banner.
const (
	MessageUploaded    = "File uploaded and saved."
	MessagePrevious    = "Using previously uploaded data."
	MessageNone        = "No file uploaded yet."
	MessageUnsupported = "Only .xlsx files are supported."
	MessageUnreadable  = "The file could not be read as an Excel workbook."
	MessageRefused     = "The geocoding service refused further lookups, try again later."
)

// ErrUnsupportedFile is returned for uploads that are not .xlsx workbooks.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Enricher geocodes the shops lacking coordinates.
type Enricher interface {
	Enrich(ctx context.Context, all []*shops.Shop, onProgress func(done, total int)) (geocoding.EnrichStats, error)
}

// Options configures the web app.
type Options struct {
	Title    string
	DataFile string
	Map      MapView
}

// Server is the local web app: upload, map, grouping, search and detail.
type Server struct {
	opts     Options
	enricher Enricher
	tmpl     *template.Template

	// uploadMu keeps the data file and the table on display from the same upload
	uploadMu sync.Mutex

	mu     sync.RWMutex
	table  *shops.Table
	source Source
	stats  *geocoding.EnrichStats
}

// NewServer creates the web app. Call LoadPrevious to pick up data saved by
// an earlier run.
func NewServer(opts Options, enricher Enricher) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	return &Server{
		opts:     opts,
		enricher: enricher,
		tmpl:     tmpl,
		source:   SourceNone,
	}, nil
}

// LoadPrevious loads the data file saved by an earlier upload, if any.
func (s *Server) LoadPrevious() error {
	if _, err := os.Stat(s.opts.DataFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	table, err := shops.OpenWorkbook(s.opts.DataFile)
	if err != nil {
		return fmt.Errorf("loading %s: %w", s.opts.DataFile, err)
	}

	s.replace(table, SourcePrevious, nil)

	return nil
}

// publish saves an uploaded table as the data file and puts it on display.
func (s *Server) publish(table *shops.Table, stats *geocoding.EnrichStats) error {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	if err := shops.SaveWorkbook(s.opts.DataFile, table); err != nil {
		return err
	}

	s.replace(table, SourceUploaded, stats)

	return nil
}

func (s *Server) replace(table *shops.Table, source Source, stats *geocoding.EnrichStats) {
	s.mu.Lock()
	old := s.table
	s.table, s.source, s.stats = table, source, stats
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("closing previous workbook: %v", err)
		}
	}
}

// snapshot returns the shops on display and where they come from.
func (s *Server) snapshot() ([]*shops.Shop, Source) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, s.source
	}

	return s.table.Shops, s.source
}

// Close releases the workbook on display.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return nil
	}

	err := s.table.Close()
	s.table = nil

	return err
}

// Router returns the gin engine serving the app.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.mapView)
	r.POST("/upload", s.upload)
	r.GET("/download", s.download)
	r.GET("/api/status", s.status)
	r.GET("/api/shops", s.listShops)
	r.GET("/api/shops/:row", s.shopDetail)
	r.GET("/api/groups", s.listGroups)
	r.GET("/api/clusters", s.listClusters)
	r.GET("/api/table", s.listTable)

	return r
}

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// Run serves the app on addr until ctx is cancelled or the server fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves the app on ln until ctx is cancelled or the server fails.
// Requests in flight see ctx, so an upload being geocoded stops with it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}

		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}

func (s *Server) mapView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, mapTemplate, View{
		Title:  s.opts.Title,
		Config: s.opts.Map,
	})
}

func (s *Server) upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "No file uploaded.", "error": err.Error()})

		return
	}

	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"ok":      false,
			"message": MessageUnsupported,
			"error":   fmt.Errorf("%w: %s", ErrUnsupportedFile, fh.Filename).Error(),
		})

		return
	}

	tmp := filepath.Join(os.TempDir(), "shopmap-"+uuid.NewString()+".xlsx")
	if err := ctx.SaveUploadedFile(fh, tmp); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": fmt.Sprintf("saving upload: %v", err)})

		return
	}
	defer os.Remove(tmp)

	table, err := shops.OpenWorkbook(tmp)
	if err != nil {
		msg := MessageUnreadable
		if errors.Is(err, shops.ErrMissingColumns) {
			msg = shops.MissingColumnsMessage
		}

		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": msg, "error": err.Error()})

		return
	}

	stats, err := s.enricher.Enrich(ctx.Request.Context(), table.Shops, nil)
	if err != nil {
		_ = table.Close()

		if errors.Is(err, geocoding.ErrServiceRefused) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"ok": false, "message": MessageRefused, "stats": stats, "error": err.Error(),
			})

			return
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": fmt.Sprintf("geocoding: %v", err)})

		return
	}

	log.Printf("upload %s: %s", fh.Filename, stats)

	if err := s.publish(table, &stats); err != nil {
		_ = table.Close()

		ctx.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": fmt.Sprintf("saving data: %v", err)})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "message": MessageUploaded, "stats": stats})
}

func (s *Server) download(ctx *gin.Context) {
	if _, err := os.Stat(s.opts.DataFile); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": MessageNone})

		return
	}

	ctx.FileAttachment(s.opts.DataFile, filepath.Base(s.opts.DataFile))
}

// StatusResponse is the payload of /api/status.
type StatusResponse struct {
	Source  Source                 `json:"source"`
	Message string                 `json:"message"`
	Rows    int                    `json:"rows"`
	Located int                    `json:"located"`
	Stats   *geocoding.EnrichStats `json:"stats,omitempty"`
}

func (s *Server) status(ctx *gin.Context) {
	all, source := s.snapshot()

	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()

	resp := StatusResponse{
		Source:  source,
		Rows:    len(all),
		Located: len(shops.Located(all)),
		Stats:   stats,
	}

	switch source {
	case SourceUploaded:
		resp.Message = MessageUploaded
	case SourcePrevious:
		resp.Message = MessagePrevious
	default:
		resp.Message = MessageNone
	}

	ctx.JSON(http.StatusOK, resp)
}

// ShopsResponse is the payload of /api/shops.
type ShopsResponse struct {
	Markers []shops.Marker `json:"markers"`
	Groups  []shops.Group  `json:"groups"`
	View    MapView        `json:"view"`
	Total   int            `json:"total"`
	Located int            `json:"located"`
}

func (s *Server) listShops(ctx *gin.Context) {
	mode, err := shops.ParseGroupMode(ctx.Query("group"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	all, _ := s.snapshot()
	matched := shops.Search(all, ctx.Query("q"))
	located := shops.Located(matched)

	groups := shops.GroupBy(located, mode)
	if groups == nil {
		groups = []shops.Group{}
	}

	ctx.JSON(http.StatusOK, ShopsResponse{
		Markers: shops.Markers(located, mode),
		Groups:  groups,
		View:    viewFor(located, s.opts.Map),
		Total:   len(matched),
		Located: len(located),
	})
}

func (s *Server) shopDetail(ctx *gin.Context) {
	row, err := strconv.Atoi(ctx.Param("row"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid row"})

		return
	}

	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()

	if table == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": MessageNone})

		return
	}

	shop, ok := table.Find(row)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("row %d not found", row)})

		return
	}

	ctx.JSON(http.StatusOK, shops.Detail(shop))
}

func (s *Server) listGroups(ctx *gin.Context) {
	mode, err := shops.ParseGroupMode(ctx.DefaultQuery("by", string(shops.GroupCountry)))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	all, _ := s.snapshot()

	groups := shops.GroupBy(shops.Located(shops.Search(all, ctx.Query("q"))), mode)
	if groups == nil {
		groups = []shops.Group{}
	}

	ctx.JSON(http.StatusOK, groups)
}

func (s *Server) listClusters(ctx *gin.Context) {
	zoom := s.opts.Map.Zoom

	if z := ctx.Query("zoom"); z != "" {
		var err error
		if zoom, err = strconv.Atoi(z); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom"})

			return
		}
	}

	all, _ := s.snapshot()

	clusters, err := shops.ClusterShops(shops.Search(all, ctx.Query("q")), shops.ResolutionForZoom(zoom))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"resolution": shops.ResolutionForZoom(zoom), "clusters": clusters})
}

func (s *Server) listTable(ctx *gin.Context) {
	all, _ := s.snapshot()
	matched := shops.Search(all, ctx.Query("q"))

	rows := make([]shops.ContactDetail, 0, len(matched))
	for _, shop := range matched {
		rows = append(rows, shops.Detail(shop))
	}

	ctx.JSON(http.StatusOK, rows)
}
