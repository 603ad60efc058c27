// Package whatsappsvc talks to the WhatsApp bridge, a small HTTP service holding the WhatsApp session.
package whatsappsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/dispatch"
)

const sendMessagePath = "/send-message"

type sendMessageRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

type bridgeService struct {
	baseURL string
	client  *rest.Client
}

var _ dispatch.MessageSender = (*bridgeService)(nil)

func NewBridgeService(conf *core.Config) dispatch.MessageSender {
	return &bridgeService{
		baseURL: strings.TrimRight(conf.Whatsapp.BridgeURL, "/"),
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: conf.Whatsapp.Timeout}},
	}
}

func (svc bridgeService) SendMessage(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(sendMessageRequest{PhoneNumber: phone, Message: message})
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}

	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: svc.baseURL + sendMessagePath,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return errors.Wrap(err, "building bridge request")
	}

	httpRes, err := svc.client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "calling whatsapp bridge")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrap(err, "reading bridge response")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return errors.New(fmt.Sprintf("whatsapp bridge - status: %d - Body: %s", res.StatusCode, res.Body))
	}
	return nil
}

type consoleService struct {
	logger core.Logger
}

// NewConsoleService logs the messages instead of sending them.
func NewConsoleService(logger core.Logger) dispatch.MessageSender {
	return &consoleService{logger: logger}
}

func (svc consoleService) SendMessage(_ context.Context, phone, message string) error {
	svc.logger.Info(fmt.Sprintf("[whatsapp] to %s:\n%s", phone, message))
	return nil
}
