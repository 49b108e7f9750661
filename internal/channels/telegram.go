package channels

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/valetproj/valet/internal/logging"
)

const telegramMaxMessageChars = 4000

// TelegramAdapter connects to Telegram over long polling.
type TelegramAdapter struct {
	bot     *telego.Bot
	inbound chan Message
}

// NewTelegramAdapter creates the adapter. The token is validated against
// the Telegram API on Start, not here.
func NewTelegramAdapter(token string) (*TelegramAdapter, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramAdapter{
		bot:     bot,
		inbound: make(chan Message, 16),
	}, nil
}

func (a *TelegramAdapter) Platform() string { return "telegram" }

func (a *TelegramAdapter) Messages() <-chan Message { return a.inbound }

// Start begins long polling and dispatches every message onto the
// inbound channel.
func (a *TelegramAdapter) Start(ctx context.Context) error {
	updates, err := a.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	bh, err := telegohandler.NewBotHandler(a.bot, updates)
	if err != nil {
		return fmt.Errorf("create bot handler: %w", err)
	}

	bh.HandleMessage(func(hctx *telegohandler.Context, message telego.Message) error {
		a.handleMessage(hctx, &message)
		return nil
	}, telegohandler.AnyMessage())

	logging.Infof("telegram", "connected as @%s", a.bot.Username())

	go bh.Start()
	go func() {
		<-ctx.Done()
		bh.Stop()
		// The channel is never closed: a handler that outlives Stop's wait
		// could still be sending. Consumers exit on ctx instead.
	}()
	return nil
}

func (a *TelegramAdapter) handleMessage(ctx context.Context, msg *telego.Message) {
	if msg.From == nil {
		return
	}

	content := msg.Text
	if msg.Caption != "" {
		if content != "" {
			content += "\n"
		}
		content += msg.Caption
	}

	var images []Image
	if len(msg.Photo) > 0 {
		// Telegram sends several sizes; the last is the largest.
		photo := msg.Photo[len(msg.Photo)-1]
		if img, err := a.fetchImage(ctx, photo.FileID); err != nil {
			logging.Warnf("telegram", "failed to fetch photo: %v", err)
		} else {
			images = append(images, *img)
		}
	}

	if content == "" && len(images) == 0 {
		return
	}

	select {
	case a.inbound <- Message{
		ID:             fmt.Sprintf("%d", msg.MessageID),
		Platform:       "telegram",
		Sender:         fmt.Sprintf("%d", msg.From.ID),
		SenderName:     msg.From.FirstName,
		Content:        content,
		ConversationID: fmt.Sprintf("%d", msg.Chat.ID),
		Images:         images,
		Timestamp:      time.Unix(msg.Date, 0),
	}:
	case <-ctx.Done():
	}
}

// fetchImage downloads a Telegram file and encodes it for the model.
func (a *TelegramAdapter) fetchImage(ctx context.Context, fileID string) (*Image, error) {
	file, err := a.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("file %s has no path", fileID)
	}

	url := a.bot.FileDownloadURL(file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}

	mediaType := "image/jpeg"
	switch filepath.Ext(file.FilePath) {
	case ".png":
		mediaType = "image/png"
	case ".webp":
		mediaType = "image/webp"
	case ".gif":
		mediaType = "image/gif"
	}
	return &Image{
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func parseChatID(conversationID string) (telego.ChatID, error) {
	var id int64
	if _, err := fmt.Sscanf(conversationID, "%d", &id); err != nil {
		return telego.ChatID{}, fmt.Errorf("invalid chat ID %q: %w", conversationID, err)
	}
	return tu.ID(id), nil
}

// SendMessage delivers text, splitting into multiple messages when it
// exceeds the platform limit.
func (a *TelegramAdapter) SendMessage(ctx context.Context, conversationID, text string) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return err
	}
	if text == "" {
		text = "(empty response)"
	}
	for _, chunk := range SplitMessage(text, telegramMaxMessageChars) {
		if _, err := a.bot.SendMessage(ctx, tu.Message(chatID, chunk)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// SendPhoto uploads a local image file.
func (a *TelegramAdapter) SendPhoto(ctx context.Context, conversationID, path, caption string) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo %s: %w", path, err)
	}
	defer f.Close()

	photo := tu.Photo(chatID, tu.File(f))
	if caption != "" {
		photo.Caption = caption
	}
	if _, err := a.bot.SendPhoto(ctx, photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendTyping shows the typing indicator. Failures are logged, not
// returned; the indicator is cosmetic.
func (a *TelegramAdapter) SendTyping(ctx context.Context, conversationID string) {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return
	}
	if err := a.bot.SendChatAction(ctx, tu.ChatAction(chatID, telego.ChatActionTyping)); err != nil {
		logging.Debugf("telegram", "send chat action: %v", err)
	}
}

var _ Adapter = (*TelegramAdapter)(nil)
