package notify

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/config"
	"github.com/salonci/salon-pos/internal/models"
)

type Sender interface {
	SendSMS(to string, body string) error
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.FromNumber,
	}
}

func (s *TwilioSender) SendSMS(to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	return err
}

// LoyaltyNotifier prévient le client quand son prochain passage sera offert.
// Envoi en tâche de fond, jamais bloquant pour la caisse.
type LoyaltyNotifier struct {
	sender Sender
	salon  string
	log    *zap.Logger
}

// NewLoyaltyNotifier accepte un sender nil : notifications désactivées.
func NewLoyaltyNotifier(sender Sender, salonName string, log *zap.Logger) *LoyaltyNotifier {
	return &LoyaltyNotifier{sender: sender, salon: salonName, log: log}
}

func (n *LoyaltyNotifier) NotifyNextVisitFree(client *models.Client) {
	if n.sender == nil || client.Telephone == nil || *client.Telephone == "" {
		return
	}

	phone := *client.Telephone
	body := fmt.Sprintf(
		"%s : bonne nouvelle %s, votre prochain passage est offert !",
		n.salon, client.NomComplet(),
	)

	go func() {
		if err := n.sender.SendSMS(phone, body); err != nil {
			n.log.Warn("loyalty sms failed",
				zap.Uint("client_id", client.ID),
				zap.Error(err),
			)
		}
	}()
}

// Enabled indique si un sender est branché (utile pour le câblage).
func (n *LoyaltyNotifier) Enabled() bool {
	return n.sender != nil
}
