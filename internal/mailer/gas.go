package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/config"
)

// GASMailer delivers mail through a Google Apps Script web app deployment.
// The script exposes named functions invoked with a positional parameter
// list and a shared token.
type GASMailer struct {
	deploymentURL string
	token         string
	client        *http.Client
	logger        *zap.Logger
}

// NewGASMailer builds the mailer from configuration.
func NewGASMailer(cfg config.MailerConfig, logger *zap.Logger) *GASMailer {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GASMailer{
		deploymentURL: cfg.DeploymentURL,
		token:         cfg.Token,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type gasRequest struct {
	Function   string `json:"function"`
	Parameters []any  `json:"parameters"`
	Token      string `json:"token"`
}

type gasResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (m *GASMailer) call(ctx context.Context, function string, parameters []any) error {
	if m.deploymentURL == "" {
		return errors.New("mailer deployment URL not configured")
	}
	if m.token == "" {
		return errors.New("mailer token not configured")
	}

	body, err := json.Marshal(gasRequest{
		Function:   function,
		Parameters: parameters,
		Token:      m.token,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.deploymentURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer request: HTTP %d", resp.StatusCode)
	}

	var parsed gasResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("mailer response: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("mailer rejected %s: %s", function, parsed.Error)
	}

	m.logger.Debug("mail sent", zap.String("function", function))
	return nil
}

func (m *GASMailer) SendTicketCreationNotification(ctx context.Context, userEmail, userName, ticketID, description, technicianName string) error {
	return m.call(ctx, "sendTicketCreationNotification",
		[]any{userEmail, userName, ticketID, description, technicianName})
}

func (m *GASMailer) SendTicketAssignmentNotification(ctx context.Context, technicianEmail, technicianName, ticketID, description, requesterName string) error {
	return m.call(ctx, "sendTicketAssignmentNotification",
		[]any{technicianEmail, technicianName, ticketID, description, requesterName})
}

func (m *GASMailer) SendAreaTicketNotification(ctx context.Context, chiefEmail, chiefName, ticketID, description, areaName string) error {
	return m.call(ctx, "sendAreaTicketNotification",
		[]any{chiefEmail, chiefName, ticketID, description, areaName})
}

func (m *GASMailer) SendTicketStatusUpdate(ctx context.Context, userEmail, userName, ticketID, description, status, technicianName, solution string) error {
	return m.call(ctx, "sendTicketStatusUpdateNotification",
		[]any{userEmail, userName, ticketID, description, status, technicianName, solution})
}

func (m *GASMailer) SendPasswordSetupEmail(ctx context.Context, email, name, token string) error {
	return m.call(ctx, "sendPasswordSetupEmail", []any{email, name, token})
}

func (m *GASMailer) SendTechnicianDailySummary(ctx context.Context, technicianEmail, technicianName string, openTickets, closedToday int) error {
	return m.call(ctx, "sendTechnicianDailySummary",
		[]any{technicianEmail, technicianName, openTickets, closedToday})
}
