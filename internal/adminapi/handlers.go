package adminapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deltafeed/deltafeed/internal/apierr"
	"github.com/deltafeed/deltafeed/internal/correlation"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
)

func (s *Server) createInstrument(c *gin.Context) {
	var req createInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apierr.InvalidArgument(err))
		return
	}

	in := req.toInstrument()
	if err := s.store.Insert(in); err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}

	existing := attrsForAll(s.store.ListAll(), in.ID)
	s.graph.AddInstrument(attrsOf(in), existing, s.correlationStrength())

	c.JSON(http.StatusCreated, in.FieldMap())
}

func (s *Server) listInstruments(c *gin.Context) {
	var result []*instrument.Instrument
	switch {
	case c.Query("kind") != "":
		result = s.store.ListByKind(instrument.Kind(c.Query("kind")))
	case c.Query("currency") != "":
		result = s.store.ListByCurrency(c.Query("currency"))
	case c.Query("status") != "":
		result = s.store.ListByStatus(instrument.Status(c.Query("status")))
	case c.Query("rating") != "":
		result = s.store.ListByRating(c.Query("rating"))
	default:
		result = s.store.ListAll()
	}

	out := make([]instrument.FieldMap, 0, len(result))
	for _, in := range result {
		out = append(out, in.FieldMap())
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getInstrument(c *gin.Context) {
	in, err := s.store.Lookup(c.Param("id"))
	if err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}
	c.JSON(http.StatusOK, in.FieldMap())
}

func (s *Server) patchInstrument(c *gin.Context) {
	var req patchInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apierr.InvalidArgument(err))
		return
	}

	if err := s.store.MergeUpdate(c.Param("id"), req.apply); err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}

	in, err := s.store.Lookup(c.Param("id"))
	if err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}
	c.JSON(http.StatusOK, in.FieldMap())
}

func (s *Server) deleteInstrument(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Remove(id); err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}
	s.graph.RemoveInstrument(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) patchRuntimeConfig(c *gin.Context) {
	var req runtimeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apierr.InvalidArgument(err))
		return
	}

	defaults := s.registry.DefaultsSnapshot()
	if req.MaxUpdatesPerSecond != nil {
		defaults.MaxUpdatesPerSecond = *req.MaxUpdatesPerSecond
	}
	if req.BucketSize != nil {
		defaults.BucketSize = *req.BucketSize
	}
	s.registry.ReconfigureDefaults(defaults)

	c.JSON(http.StatusOK, gin.H{
		"maxUpdatesPerSecond": defaults.MaxUpdatesPerSecond,
		"bucketSize":          defaults.BucketSize,
	})
}

func (s *Server) subscriberStats(c *gin.Context) {
	stats, err := s.registry.SessionStats(c.Param("id"), time.Now())
	if err != nil {
		respondErr(c, classifyStoreErr(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func respondErr(c *gin.Context, err *apierr.Error) {
	c.JSON(apierr.HTTPStatus(err), gin.H{"success": false, "message": err.Error()})
}

func classifyStoreErr(err error) *apierr.Error {
	switch {
	case errors.Is(err, instrument.ErrNotFound), errors.Is(err, registry.ErrNotFound):
		return apierr.NotFound(err)
	case errors.Is(err, instrument.ErrAlreadyExists), errors.Is(err, registry.ErrAlreadyExists):
		return apierr.AlreadyExists(err)
	default:
		return apierr.InvalidArgument(err)
	}
}

func attrsOf(in *instrument.Instrument) correlation.Attrs {
	return correlation.Attrs{ID: in.ID, Kind: string(in.Kind), Sector: in.Sector, Currency: in.Currency}
}

func attrsForAll(instruments []*instrument.Instrument, excludeID string) []correlation.Attrs {
	out := make([]correlation.Attrs, 0, len(instruments))
	for _, in := range instruments {
		if in.ID == excludeID {
			continue
		}
		out = append(out, attrsOf(in))
	}
	return out
}
