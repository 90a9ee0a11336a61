package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	resourcefilter "github.com/joshmeranda/resourcefilter/pkg"
	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	healthOK = "OK"
)

type ServerOptions struct {
	Logger  *zap.SugaredLogger
	Address string
	Context context.Context

	// Config supplies the aliases and backend options of every compiled filter, DefaultConfig otherwise.
	Config *resourcefilter.Config
}

type Server struct {
	ServerOptions

	server http.Server
}

func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Config == nil {
		opts.Config = resourcefilter.DefaultConfig()
	}

	if opts.Context == nil {
		opts.Context = context.Background()
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	server := &Server{
		ServerOptions: opts,
	}

	engine := gin.Default()

	engine.GET("/health", server.handleHealth)
	engine.POST("/filter", server.handleFilter)

	server.server = http.Server{
		Handler: engine,
		Addr:    opts.Address,
	}

	return server, nil
}

func (server *Server) Start() error {
	listener, err := net.Listen("tcp", server.Address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	go func() {
		server.Logger.Infof("server listening on '%s'", listener.Addr().String())

		if err := server.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Logger.Errorf("server stopped unexpectedly: %s", err)
		}
	}()

	return nil
}

func (server *Server) Shutdown() error {
	server.Logger.Infof("stopping server")

	if err := server.server.Shutdown(server.Context); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	return nil
}

func (server *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, healthOK)
}

func abort(ctx *gin.Context, code int, err error) {
	_ = ctx.Error(err)
	ctx.AbortWithStatusJSON(code, ErrorResponse{Error: err.Error()})
}

func (server *Server) handleFilter(ctx *gin.Context) {
	id := uuid.New().String()
	logger := server.Logger.With("id", id)

	decoder := json.NewDecoder(ctx.Request.Body)
	decoder.UseNumber()

	var request FilterRequest
	if err := decoder.Decode(&request); err != nil {
		abort(ctx, http.StatusBadRequest, fmt.Errorf("could not decode request: %w", err))
		return
	}

	warnings := []string{}
	f, err := server.Config.Compile(request.Filter, expr.WithWarningFunc(func(message string) {
		logger.Warn(message)
		warnings = append(warnings, message)
	}))
	if err != nil {
		logger.Debugf("rejected filter '%s': %s", request.Filter, err)
		abort(ctx, http.StatusBadRequest, err)
		return
	}

	response := FilterResponse{
		ID:       id,
		Matches:  []int{},
		Records:  []any{},
		Warnings: warnings,
	}

	for i, record := range request.Records {
		if request.Value {
			value, err := f.Value(record)
			if err != nil {
				abort(ctx, statusForError(err), err)
				return
			}

			response.Values = append(response.Values, value)
			continue
		}

		matched, err := f.Evaluate(record)
		if err != nil {
			abort(ctx, statusForError(err), err)
			return
		}

		if matched {
			response.Matches = append(response.Matches, i)
		}
	}

	response.Records = lo.Map(response.Matches, func(i int, _ int) any {
		return request.Records[i]
	})
	response.Warnings = warnings

	logger.Debugf("filter '%s' matched %d of %d records", f, len(response.Matches), len(request.Records))

	ctx.JSON(http.StatusOK, response)
}

func statusForError(err error) int {
	switch {
	case expr.IsTransformError(err):
		return http.StatusUnprocessableEntity
	case expr.IsSyntaxError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
