package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cepradar/server/config"
	"cepradar/server/internal/database"
	"cepradar/server/internal/export"
	"cepradar/server/internal/format"
	"cepradar/server/internal/market"
	"cepradar/server/internal/models"
	"cepradar/server/internal/monitor"
	"cepradar/server/internal/upstream"
	"cepradar/server/internal/valuation"
)

// User-facing error messages. The dashboard shows these verbatim in toasts.
const (
	msgDuplicateCEP  = "CEP já cadastrado"
	msgInvalidCEP    = "CEP deve conter exatamente 8 dígitos"
	msgInvalidTipo   = "Tipo de imóvel inválido"
	msgEngineOffline = "Falha de conexão com o serviço de avaliação"
	msgMarketFailed  = "Não foi possível carregar os dados da região"
)

type Handler struct {
	monitor *monitor.Monitor
	engine  *upstream.Client
	market  *market.Service
	db      *database.Database
	logger  *logrus.Logger
	cfg     *config.Config
}

type RegisterRequest struct {
	Cep  string `json:"cep" binding:"required"`
	Tipo string `json:"tipo"`
}

func NewHandler(mon *monitor.Monitor, engine *upstream.Client, marketSvc *market.Service, db *database.Database, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		monitor: mon,
		engine:  engine,
		market:  marketSvc,
		db:      db,
		logger:  logger,
		cfg:     cfg,
	}
}

// ListCEPs serves the registration view's list from the monitor snapshot.
func (h *Handler) ListCEPs(c *gin.Context) {
	records := h.monitor.Snapshot()
	if records == nil {
		records = []models.CEPRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// RegisterCEP validates the code, forwards the registration to the engine
// and starts following the new record.
func (h *Handler) RegisterCEP(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse registration request")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCEP})
		return
	}

	cep := format.NormalizeCEP(req.Cep)
	if !format.IsCompleteCEP(cep) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCEP})
		return
	}
	if req.Tipo != "" && req.Tipo != models.TipoApartamento && req.Tipo != models.TipoCasa {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidTipo})
		return
	}

	record, err := h.engine.RegisterCEP(c.Request.Context(), cep, req.Tipo)
	if err != nil {
		h.renderEngineError(c, err, "Failed to register CEP")
		return
	}

	h.monitor.Track(*record)
	c.JSON(http.StatusCreated, record)
}

// RetryCEP asks the engine to reprocess a failed record.
func (h *Handler) RetryCEP(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return
	}

	record, err := h.engine.RetryCEP(c.Request.Context(), id)
	if err != nil {
		h.renderEngineError(c, err, "Failed to retry CEP")
		return
	}

	h.monitor.Replace(*record)
	c.JSON(http.StatusOK, record)
}

// DeleteCEP removes a record from monitoring.
func (h *Handler) DeleteCEP(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return
	}

	if err := h.engine.DeleteCEP(c.Request.Context(), id); err != nil {
		h.renderEngineError(c, err, "Failed to delete CEP")
		return
	}

	h.monitor.Remove(id)
	c.Status(http.StatusNoContent)
}

// SearchAddresses proxies the autocomplete endpoint. Queries below the
// minimum length answer an empty list without hitting the engine.
func (h *Handler) SearchAddresses(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len([]rune(query)) < h.cfg.Autocomplete.MinQueryLength {
		c.JSON(http.StatusOK, []models.AddressSuggestion{})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.Autocomplete.DefaultLimit)))
	if err != nil || limit <= 0 {
		limit = h.cfg.Autocomplete.DefaultLimit
	}

	suggestions, err := h.engine.SearchAddresses(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.WithError(err).Error("Address search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgEngineOffline})
		return
	}
	if suggestions == nil {
		suggestions = []models.AddressSuggestion{}
	}
	c.JSON(http.StatusOK, suggestions)
}

// MarketView serves the properties screen for one CEP: the region summary
// plus the comparables around it. Any failure along the way collapses into
// one generic message.
func (h *Handler) MarketView(c *gin.Context) {
	cep := format.NormalizeCEP(c.Param("cep"))
	if !format.IsCompleteCEP(cep) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCEP})
		return
	}

	view, err := h.market.Load(c.Request.Context(), cep)
	if err != nil {
		h.logger.WithError(err).WithField("cep", cep).Error("Failed to load market view")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgMarketFailed})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExportComparables streams the current comparables for a CEP as CSV.
func (h *Handler) ExportComparables(c *gin.Context) {
	cep := format.NormalizeCEP(c.Param("cep"))
	if !format.IsCompleteCEP(cep) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCEP})
		return
	}

	view, err := h.market.Load(c.Request.Context(), cep)
	if err != nil {
		h.logger.WithError(err).WithField("cep", cep).Error("Failed to load comparables for export")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgMarketFailed})
		return
	}

	serveCSV(c, fmt.Sprintf("comparaveis_%s.csv", cep))
	if err := export.WriteComparables(c.Writer, cep, view.Comparables); err != nil {
		h.logger.WithError(err).Error("Failed to write comparables CSV")
	}
}

// ListValuations serves the valuations screen: the filtered history plus the
// distinct CEPs present in the full history.
func (h *Handler) ListValuations(c *gin.Context) {
	filter, ok := h.parseValuationFilter(c)
	if !ok {
		return
	}

	valuations, err := h.loadValuations(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load valuations")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgEngineOffline})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avaliacoes": filter.Apply(valuations),
		"ceps":       valuation.DistinctCEPs(valuations),
	})
}

// ExportValuations streams the currently filtered valuation set as CSV.
func (h *Handler) ExportValuations(c *gin.Context) {
	filter, ok := h.parseValuationFilter(c)
	if !ok {
		return
	}

	valuations, err := h.loadValuations(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load valuations for export")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgEngineOffline})
		return
	}

	serveCSV(c, "avaliacoes.csv")
	if err := export.WriteValuations(c.Writer, filter.Apply(valuations)); err != nil {
		h.logger.WithError(err).Error("Failed to write valuations CSV")
	}
}

// loadValuations refreshes the history from the engine, falling back to the
// local cache when the engine is unreachable.
func (h *Handler) loadValuations(ctx context.Context) ([]models.Valuation, error) {
	valuations, err := h.engine.ListValuations(ctx)
	if err == nil {
		if h.db != nil {
			if cacheErr := h.db.ReplaceValuations(valuations); cacheErr != nil {
				h.logger.WithError(cacheErr).Warn("Failed to cache valuations")
			}
		}
		return valuations, nil
	}

	if h.db == nil {
		return nil, err
	}
	h.logger.WithError(err).Warn("Engine unreachable, serving cached valuations")
	cached, cacheErr := h.db.ListValuations()
	if cacheErr != nil {
		return nil, err
	}
	return cached, nil
}

func (h *Handler) parseValuationFilter(c *gin.Context) (valuation.Filter, bool) {
	filter := valuation.Filter{
		Cep:  format.NormalizeCEP(c.Query("cep")),
		Tier: c.Query("confianca"),
	}

	if !valuation.ValidTier(filter.Tier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Faixa de confiança inválida"})
		return valuation.Filter{}, false
	}

	for param, target := range map[string]**float64{
		"preco_min": &filter.PriceMin,
		"preco_max": &filter.PriceMax,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Faixa de preço inválida"})
			return valuation.Filter{}, false
		}
		*target = &value
	}

	return filter, true
}

// renderEngineError maps engine failures onto the dashboard's three error
// kinds: duplicate, business error with the engine's detail, and generic
// connectivity failure.
func (h *Handler) renderEngineError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, upstream.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": msgDuplicateCEP})
	default:
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			h.logger.WithError(err).Error(logMsg)
			c.JSON(apiErr.Status, gin.H{"error": apiErr.Detail})
			return
		}
		h.logger.WithError(err).Error(logMsg)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgEngineOffline})
	}
}

func serveCSV(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
}
