package api

import (
	"fmt"
	"net/http"
	"time"

	"gochurn/domain/customer"
	"gochurn/domain/model"
	"gochurn/internal/errors"

	"github.com/gin-gonic/gin"
)

// BatchRequest is the body of POST /predict/batch
type BatchRequest struct {
	Customers []customer.Input `json:"customers" binding:"required"`
}

// BatchResult is one entry of a batch response, in request order
type BatchResult struct {
	Index      int                       `json:"index"`
	Prediction *model.PredictionResponse `json:"prediction,omitempty"`
	Error      *ErrorResponse            `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /predict/batch
type BatchResponse struct {
	Predictions []BatchResult `json:"predictions"`
}

// ModelResponse describes the served model
type ModelResponse struct {
	Manifest    model.Manifest    `json:"manifest"`
	Schema      model.Schema      `json:"schema"`
	Horizons    []int             `json:"horizons"`
	Summary     model.FitSummary  `json:"summary"`
	KaplanMeier *kaplanMeierBrief `json:"kaplan_meier,omitempty"`
}

type kaplanMeierBrief struct {
	Median     *float64 `json:"median"`
	Population int      `json:"population"`
}

func (s *Server) handlePredict(c *gin.Context) {
	var in customer.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		s.metrics.ObservePrediction("invalid", 0)
		respondBindError(c, err)
		return
	}

	start := time.Now()
	pred, err := s.svc.Predict(c.Request.Context(), in)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.ObservePrediction("error", elapsed)
		s.logger.Debug("Prediction %s rejected: %v", c.GetString(requestIDKey), err)
		respondError(c, err)
		return
	}
	s.metrics.ObservePrediction("ok", elapsed)

	c.JSON(http.StatusOK, pred.ToResponse())
}

func (s *Server) handlePredictBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if len(req.Customers) == 0 {
		respondError(c, errors.InvalidInput("customers must not be empty"))
		return
	}
	if len(req.Customers) > s.maxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("batch of %d exceeds the limit of %d", len(req.Customers), s.maxBatch),
			Code:  errors.CodeInvalidInput,
		})
		return
	}
	s.metrics.ObserveBatch(len(req.Customers))

	start := time.Now()
	items, err := s.svc.PredictBatch(c.Request.Context(), req.Customers)
	if err != nil {
		respondError(c, err)
		return
	}
	perItem := time.Since(start).Seconds() / float64(len(items))

	resp := BatchResponse{Predictions: make([]BatchResult, len(items))}
	failed := 0
	for i, item := range items {
		resp.Predictions[i].Index = i
		if item.Err != nil {
			failed++
			s.metrics.ObservePrediction("error", perItem)
			body := errorBody(item.Err)
			resp.Predictions[i].Error = &body
			continue
		}
		s.metrics.ObservePrediction("ok", perItem)
		out := item.Prediction.ToResponse()
		resp.Predictions[i].Prediction = &out
	}
	if failed > 0 {
		s.logger.Debug("Batch %s: %d of %d records rejected", c.GetString(requestIDKey), failed, len(items))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModel(c *gin.Context) {
	a := s.svc.Artifact()
	resp := ModelResponse{
		Manifest: a.Manifest,
		Schema:   a.Schema,
		Horizons: s.svc.Horizons(),
		Summary:  a.Model.Summary,
	}
	if km := a.KaplanMeier; km != nil {
		population := 0
		if len(km.AtRisk) > 0 {
			population = km.AtRisk[0]
		}
		resp.KaplanMeier = &kaplanMeierBrief{Median: km.Median, Population: population}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"model_id": s.svc.Artifact().Manifest.ModelID,
	})
}
