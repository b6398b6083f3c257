package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/dockbridge/core"
)

type pairView struct {
	DockA string `json:"dock_a"`
	DockB string `json:"dock_b"`
	Edges int    `json:"edges"`
}

func (s *session) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(s.runner.World.Resources.Status.Handler()))

	debug := r.Group("/debug")
	debug.GET("/summary", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.String(http.StatusOK, s.runner.System.DebugSummary())
	})

	debug.GET("/pairs", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		pairs := s.runner.System.DockedPairs()
		out := make([]pairView, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, pairView{
				DockA: s.label(p.A),
				DockB: s.label(p.B),
				Edges: s.runner.System.PairEdgeCount(p.A, p.B),
			})
		}
		c.JSON(http.StatusOK, out)
	})

	debug.GET("/entity/:name", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		e, ok := s.resolve(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
			return
		}
		c.String(http.StatusOK, s.runner.System.DebugNode(e))
	})

	debug.POST("/refresh", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.runner.System.RefreshAll()
		c.JSON(http.StatusOK, gin.H{"pass": s.runner.System.PassID().String()})
	})

	return r
}

// resolve accepts a scenario name or a raw entity id
func (s *session) resolve(name string) (core.Entity, bool) {
	if e, ok := s.runner.Entity(name); ok {
		return e, s.runner.World.Exists(e)
	}
	id, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	e := core.Entity(id)
	return e, s.runner.World.Exists(e)
}

func (s *session) label(e core.Entity) string {
	if name := s.runner.NameOf(e); name != "" {
		return name
	}
	return strconv.FormatUint(uint64(e), 10)
}
