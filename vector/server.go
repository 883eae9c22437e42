package vector

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/vecenv/types"
)

// Wire format between an Actor backend and an EnvServer.
type seedRequest struct {
	Seed int64 `json:"seed"`
}

type resetRequest struct {
	Seed []int64 `json:"seed"`
}

type stepRequest struct {
	Actions []*types.Actions `json:"actions"`
}

type putRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type getRequest struct {
	Key string `json:"key"`
}

type resultsResponse struct {
	Results []*types.StepResult `json:"results"`
}

type valuesResponse struct {
	Values []any `json:"values"`
}

type profilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

// EnvServer hosts one EnvPool behind an HTTP API so an Actor backend can
// drive it from another process. The pool lives entirely in the server's
// execution context; the lock serializes access for clients that issue an
// out-of-band call while a scheduled unit is in flight.
type EnvServer struct {
	lock   *sync.Mutex
	pool   *EnvPool
	server *http.Server
}

// NewEnvServer constructs the pool and the HTTP surface. The environment
// factory runs here, in the server's context.
func NewEnvServer(binding types.Binding, n int) *EnvServer {
	s := &EnvServer{
		lock: new(sync.Mutex),
		pool: NewEnvPool(binding.Creator, n),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.POST("/reset", s.handleReset)
	r.POST("/step", s.handleStep)
	r.POST("/seed", s.handleSeed)
	r.POST("/put", s.handlePut)
	r.POST("/get", s.handleGet)
	r.POST("/profile", s.handleProfile)
	r.POST("/close", s.handleClose)
	s.server = &http.Server{Handler: r}

	return s
}

// Serve blocks serving requests on ln until Shutdown.
func (s *EnvServer) Serve(ln net.Listener) error {
	slog.Debug("env server listening", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Start serves on addr in the background and shuts down when ctx ends.
func (s *EnvServer) Start(ctx context.Context, addr string) {
	s.server.Addr = addr
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("env server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown(context.Background())
	}()
}

// Shutdown stops accepting requests and waits for in-flight handlers.
func (s *EnvServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *EnvServer) handleReset(c *gin.Context) {
	req := resetRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	results := s.pool.ResetAll(req.Seed...)
	s.lock.Unlock()
	c.JSON(http.StatusOK, resultsResponse{Results: results})
}

func (s *EnvServer) handleStep(c *gin.Context) {
	req := stepRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	results := s.pool.Step(req.Actions)
	s.lock.Unlock()
	c.JSON(http.StatusOK, resultsResponse{Results: results})
}

func (s *EnvServer) handleSeed(c *gin.Context) {
	req := seedRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	s.pool.Seed(req.Seed)
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *EnvServer) handlePut(c *gin.Context) {
	req := putRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	s.pool.PutAll(req.Key, req.Value)
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *EnvServer) handleGet(c *gin.Context) {
	req := getRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	values := s.pool.GetAll(req.Key)
	s.lock.Unlock()
	c.JSON(http.StatusOK, valuesResponse{Values: values})
}

func (s *EnvServer) handleProfile(c *gin.Context) {
	s.lock.Lock()
	profiles := s.pool.ProfileAll()
	s.lock.Unlock()
	c.JSON(http.StatusOK, profilesResponse{Profiles: profiles})
}

func (s *EnvServer) handleClose(c *gin.Context) {
	s.lock.Lock()
	s.pool.Close()
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
