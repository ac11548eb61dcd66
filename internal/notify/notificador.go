// Package notify avisa o próximo aprovador quando a vez dele chega.
// A entrega em si (e-mail, chat) é responsabilidade do serviço apontado
// pelo webhook; aqui só se monta e envia o aviso.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Aviso descreve o evento notificado.
type Aviso struct {
	DocumentoID uuid.UUID `json:"documento_id"`
	Titulo      string    `json:"titulo"`
	Etapa       string    `json:"etapa"`
	Usuario     uuid.UUID `json:"usuario_id"`
	Mensagem    string    `json:"mensagem"`
}

// Notificador envia avisos para canais externos.
type Notificador interface {
	Notificar(ctx context.Context, aviso Aviso) error
}

// WebhookNotifier entrega avisos via POST JSON com timeout curto.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier devolve nil quando não há webhook configurado.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	if webhookURL == "" {
		return nil
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notificar envia o aviso; falha de entrega é do chamador decidir se importa.
func (n *WebhookNotifier) Notificar(ctx context.Context, aviso Aviso) error {
	if n == nil || n.webhookURL == "" {
		return errors.New("notify: webhook não configurado")
	}

	if aviso.Mensagem == "" {
		aviso.Mensagem = fmt.Sprintf("Documento %q aguarda sua aprovação (etapa %s)", aviso.Titulo, aviso.Etapa)
	}

	body, err := json.Marshal(aviso)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: entrega falhou (%d)", resp.StatusCode)
	}
	return nil
}
