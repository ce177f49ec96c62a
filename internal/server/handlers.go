// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/smiles"
	"github.com/pdiddy/nnaasynth/internal/store"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidSMILES      = "INVALID_SMILES"
	CodeNotFound           = "NOT_FOUND"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeCanceled           = "CANCELED"
	CodeInternal           = "INTERNAL_ERROR"
)

const maxListLimit = 200

// statusClientClosedRequest is nginx's status for a client that went away
// before the response was written.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AnalyzeRequest is the body of POST /v1/analyses.
type AnalyzeRequest struct {
	SMILES string `json:"smiles" validate:"required,max=2048,smiles"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("smiles", func(fl validator.FieldLevel) bool {
		return smiles.Validate(fl.Field().String()) == nil
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: CodeInvalidRequest})
		return
	}
	if err := validate.Struct(req); err != nil {
		code := CodeInvalidRequest
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "smiles" {
			code = CodeInvalidSMILES
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	a := types.Analysis{ID: s.newID(), Query: req.SMILES, StartedAt: s.now()}
	results, err := s.analyzer.Run(ctx, req.SMILES)
	if err != nil {
		status, code := classify(err)
		if status == statusClientClosedRequest {
			s.log.Info("analysis canceled by client", zap.String("id", a.ID), zap.String("smiles", req.SMILES))
		} else {
			s.log.Error("analysis failed", zap.String("id", a.ID), zap.String("smiles", req.SMILES), zap.Error(err))
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	a.FinishedAt = s.now()
	a.Results = results
	if a.Results == nil {
		a.Results = []types.SelectedResult{}
	}

	if err := s.repo.Save(c.Request.Context(), a); err != nil {
		s.log.Error("saving analysis", zap.String("id", a.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save analysis", Code: CodeInternal})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) handleList(c *gin.Context) {
	opts := store.ListOptions{Query: c.Query("query")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxListLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be an integer between 1 and " + strconv.Itoa(maxListLimit),
				Code:  CodeInvalidRequest,
			})
			return
		}
		opts.Limit = n
	}

	list, err := s.repo.List(c.Request.Context(), opts)
	if err != nil {
		s.log.Error("listing analyses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list analyses", Code: CodeInternal})
		return
	}
	if list == nil {
		list = []types.Analysis{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": list, "count": len(list)})
}

func (s *Server) handleGet(c *gin.Context) {
	id := c.Param("id")
	a, err := s.repo.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "analysis " + id + " not found", Code: CodeNotFound})
		return
	}
	if err != nil {
		s.log.Error("fetching analysis", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch analysis", Code: CodeInternal})
		return
	}
	c.JSON(http.StatusOK, a)
}

// classify maps a pipeline error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, smiles.ErrInvalid):
		return http.StatusBadRequest, CodeInvalidSMILES
	case errors.Is(err, types.ErrConfiguration):
		return http.StatusInternalServerError, CodeConfiguration
	case errors.Is(err, types.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, CodeServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, CodeCanceled
	}
	return http.StatusInternalServerError, CodeInternal
}
