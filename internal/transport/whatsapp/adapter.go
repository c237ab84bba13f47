// Package whatsapp implements transport.Sender on top of whatsmeow.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"kelasbot/internal/transport"
	"kelasbot/pkg/logx"
)

type Config struct {
	// SessionPath is the sqlite file holding the whatsmeow device state.
	SessionPath string
	// SendPerSecond caps outbound messages. WhatsApp rate-limits (and
	// eventually bans) accounts that flood, so sends go through a
	// limiter instead of straight to the socket.
	SendPerSecond float64
}

type Adapter struct {
	client  *whatsmeow.Client
	log     logx.Logger
	limiter *rate.Limiter
	handler transport.Handler
}

func New(ctx context.Context, cfg Config, log logx.Logger) (*Adapter, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.SessionPath == "" {
		return nil, errors.New("whatsapp session path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SessionPath), 0o755); err != nil {
		return nil, err
	}
	perSec := cfg.SendPerSecond
	if perSec <= 0 {
		perSec = 1
	}

	dbLog := waLog.Stdout("Session", "WARN", true)
	container, err := sqlstore.New(ctx, "sqlite",
		fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", cfg.SessionPath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	clientLog := waLog.Stdout("Client", "WARN", true)
	a := &Adapter{
		client:  whatsmeow.NewClient(device, clientLog),
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(perSec), 3),
	}
	a.client.AddEventHandler(a.handleEvent)
	return a, nil
}

// OnMessage installs the inbound handler. Must be called before Connect.
func (a *Adapter) OnMessage(h transport.Handler) { a.handler = h }

// Connect establishes the session. A device that has never been linked
// prints QR codes to the log until the phone scans one.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.client.Store.ID == nil {
		qrChan, err := a.client.GetQRChannel(ctx)
		if err != nil {
			return err
		}
		if err := a.client.Connect(); err != nil {
			return err
		}
		go func() {
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					a.log.Info("scan this QR code with WhatsApp", logx.String("code", evt.Code))
				case "success":
					a.log.Info("device linked")
				default:
					a.log.Warn("qr login event", logx.String("event", evt.Event))
				}
			}
		}()
		return nil
	}
	return a.client.Connect()
}

func (a *Adapter) Close() {
	a.client.Disconnect()
}

func (a *Adapter) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		a.handleMessage(v)
	case *events.Connected:
		a.log.Info("whatsapp connected")
	case *events.Disconnected:
		// whatsmeow reconnects on its own; just leave a trace.
		a.log.Warn("whatsapp disconnected")
	case *events.LoggedOut:
		a.log.Error("device logged out; delete the session file and re-link")
	}
}

func (a *Adapter) handleMessage(v *events.Message) {
	if a.handler == nil || v.Info.IsFromMe {
		return
	}
	text := extractText(v.Message)
	if text == "" {
		return
	}
	msg := transport.Message{
		Chat:     v.Info.Chat.String(),
		Sender:   v.Info.Sender.ToNonAD().String(),
		Text:     text,
		IsGroup:  v.Info.IsGroup,
		PushName: v.Info.PushName,
	}
	// One goroutine per message: a slow handler (storage, group metadata
	// lookups) must not stall the event loop.
	go a.handler(context.Background(), msg)
}

// extractText pulls the human text out of the few payload shapes the bot
// answers to: plain, extended (replies/links), and image captions.
func extractText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	if t := m.GetConversation(); t != "" {
		return t
	}
	if t := m.GetExtendedTextMessage().GetText(); t != "" {
		return t
	}
	return m.GetImageMessage().GetCaption()
}

func (a *Adapter) SendMessage(ctx context.Context, target, text string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	jid, err := types.ParseJID(target)
	if err != nil {
		return fmt.Errorf("bad target jid %q: %w", target, err)
	}
	_, err = a.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

func (a *Adapter) GroupParticipants(ctx context.Context, groupID string) ([]transport.Participant, error) {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return nil, fmt.Errorf("bad group jid %q: %w", groupID, err)
	}
	info, err := a.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, err
	}
	out := make([]transport.Participant, 0, len(info.Participants))
	for _, p := range info.Participants {
		role := ""
		if p.IsSuperAdmin {
			role = "superadmin"
		} else if p.IsAdmin {
			role = "admin"
		}
		out = append(out, transport.Participant{ID: p.JID.ToNonAD().String(), Role: role})
	}
	return out, nil
}
