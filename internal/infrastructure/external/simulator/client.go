package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/domain/casework"
	"github.com/garyjia/benefit-casework/internal/domain/period"
	"github.com/garyjia/benefit-casework/internal/domain/simulation"
)

const simulatePath = "/api/v1/simulate"

// ErrUnexpectedStatus is returned when the payment system answers with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Config holds the payment simulation client settings
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
}

// simulateRequest is the wire form sent to the payment system
type simulateRequest struct {
	CaseID      uuid.UUID     `json:"case_id"`
	SakID       uuid.UUID     `json:"sak_id"`
	ApplicantID string        `json:"applicant_id"`
	Period      period.Period `json:"period"`
	Months      []monthAmount `json:"months"`
}

type monthAmount struct {
	Month  period.Month `json:"month"`
	Amount int64        `json:"amount"`
}

// Client implements port.SimulationClient against the payment system's HTTP API
type Client struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a new simulation client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 32
	}
	return &Client{
		client: &fasthttp.Client{
			Name:            "benefit-casework",
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: maxConns,
		},
		url:     strings.TrimRight(cfg.BaseURL, "/") + simulatePath,
		timeout: timeout,
		logger:  logger,
	}
}

// Simulate asks the payment system what the calculation would pay out
func (c *Client) Simulate(ctx context.Context, req casework.SimulationRequest) (simulation.Simulation, error) {
	if err := ctx.Err(); err != nil {
		return simulation.Simulation{}, err
	}

	body, err := json.Marshal(toWire(req))
	if err != nil {
		return simulation.Simulation{}, fmt.Errorf("failed to encode simulation request: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.url)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.Header.Set("X-Correlation-ID", req.CaseID.String())
	httpReq.SetBody(body)

	start := time.Now()
	if err := c.client.DoTimeout(httpReq, httpResp, c.deadline(ctx)); err != nil {
		c.logger.Error("Simulation request failed",
			zap.String("case_id", req.CaseID.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return simulation.Simulation{}, fmt.Errorf("simulation request failed: %w", err)
	}

	status := httpResp.StatusCode()
	if status < 200 || status >= 300 {
		c.logger.Error("Simulation rejected",
			zap.String("case_id", req.CaseID.String()),
			zap.Int("status", status))
		return simulation.Simulation{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}

	var sim simulation.Simulation
	if err := json.Unmarshal(httpResp.Body(), &sim); err != nil {
		return simulation.Simulation{}, fmt.Errorf("failed to decode simulation response: %w", err)
	}

	c.logger.Info("Simulation completed",
		zap.String("case_id", req.CaseID.String()),
		zap.String("simulation_id", sim.ID.String()),
		zap.Duration("elapsed", time.Since(start)))
	return sim, nil
}

// deadline shortens the client timeout to what is left of ctx
func (c *Client) deadline(ctx context.Context) time.Duration {
	timeout := c.timeout
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func toWire(req casework.SimulationRequest) simulateRequest {
	months := make([]monthAmount, 0, len(req.Calculation.Months))
	for _, m := range req.Calculation.Months {
		months = append(months, monthAmount{Month: m.Month, Amount: m.Amount})
	}
	return simulateRequest{
		CaseID:      req.CaseID,
		SakID:       req.SakID,
		ApplicantID: req.ApplicantID,
		Period:      req.Period,
		Months:      months,
	}
}

// Verify interface compliance
var _ port.SimulationClient = (*Client)(nil)
