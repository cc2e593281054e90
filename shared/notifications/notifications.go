package notifications

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"dexscanner-monitor/shared/env"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

var bot *tgbotapi.BotAPI
var isInitialized bool = false
var telegramLimiter *rate.Limiter

func InitTelegramBot() error {
	if isInitialized && bot != nil {
		log.Println("INFO: Telegram bot already initialized.")
		return nil
	}

	isInitialized = false
	bot = nil
	telegramLimiter = nil

	botToken := env.TelegramBotToken
	groupID := env.TelegramGroupID

	if botToken == "" {
		return fmt.Errorf("critical error: TELEGRAM_BOT_TOKEN missing from env configuration")
	}
	if groupID == 0 {
		return fmt.Errorf("critical error: TELEGRAM_GROUP_ID missing or invalid in env configuration")
	}
	log.Println("Initializing Telegram bot API...")
	var err error

	bot, err = tgbotapi.NewBotAPI(botToken)
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to initialize Telegram bot API: %w", err)
	}
	log.Println("Verifying bot token with Telegram API (GetMe)...")
	userInfo, err := bot.GetMe()
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to verify bot token with GetMe API call: %w", err)
	}
	isInitialized = true
	telegramLimiter = rate.NewLimiter(rate.Limit(0.2), 1)
	log.Printf("Telegram bot initialized successfully for @%s", userInfo.UserName)
	log.Printf("Telegram rate limiter initialized (1 msg / 5 sec)")

	escapedUsername := EscapeMarkdownV2(userInfo.UserName)
	startupMessage := fmt.Sprintf("Monitor connected successfully \\(@%s\\)\\. Watching for new listings\\.", escapedUsername)
	SendSystemLogMessage(startupMessage)

	return nil
}

func IsInitialized() bool {
	return isInitialized && bot != nil
}

// SendTelegramMessage delivers an already-formatted alert to the configured
// group. The error is informational only; callers treat delivery as
// best-effort and never retry on top of the internal retry loop.
func SendTelegramMessage(message string) error {
	return sendMessageWithRetry(env.TelegramGroupID, 0, message)
}

func SendSystemLogMessage(message string) {
	if err := sendMessageWithRetry(env.TelegramGroupID, env.SystemLogsThreadID, message); err != nil {
		log.Printf("WARN: System log message not delivered: %v", err)
	}
}

func sendMessageWithRetry(chatID int64, messageThreadID int, text string) error {
	if telegramLimiter != nil {
		if err := telegramLimiter.Wait(context.Background()); err != nil {
			log.Printf("ERROR: Telegram rate limiter wait error for chat %d: %v. Proceeding with send attempt...", chatID, err)
		}
	}
	if bot == nil {
		log.Println("ERROR: Cannot send message, Telegram bot is not initialized.")
		return fmt.Errorf("telegram bot not initialized")
	}
	if chatID == 0 {
		log.Println("ERROR: Cannot send message, target chatID is 0.")
		return fmt.Errorf("target chatID is 0")
	}

	logCtx := fmt.Sprintf("[Text - ChatID: %d, ThreadID: %d]", chatID, messageThreadID)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if messageThreadID != 0 {
		log.Printf("WARN: MessageThreadID feature unavailable for text. Sending to main chat %d instead of thread %d. %s", chatID, messageThreadID, logCtx)
	}

	maxRetries := 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := bot.Send(msg)
		if err == nil {
			log.Printf("INFO: Text message sent successfully %s", logCtx)
			return nil
		}

		lastErr = err

		if tgErr, ok := err.(*tgbotapi.Error); ok {
			log.Printf("ERROR: Failed Telegram send (Attempt %d/%d): API Err %d - %s %s",
				i+1, maxRetries, tgErr.Code, tgErr.Message, logCtx)

			if tgErr.Code == 429 {
				retryAfter := tgErr.RetryAfter
				if retryAfter <= 0 {
					retryAfter = 1
				}
				log.Printf("INFO: Telegram API rate limit hit (429). Retrying after %d seconds... %s", retryAfter, logCtx)
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		} else {
			log.Printf("ERROR: Failed Telegram send (Attempt %d/%d): General Error %v %s",
				i+1, maxRetries, err, logCtx)
		}

		if i < maxRetries-1 {
			waitDuration := time.Duration(math.Pow(2, float64(i))) * time.Second
			if waitDuration < time.Second {
				waitDuration = time.Second
			}
			log.Printf("INFO: Retrying failed send in %v... %s", waitDuration, logCtx)
			time.Sleep(waitDuration)
		}
	}
	log.Printf("ERROR: Telegram message failed to send after %d retries. Last Error: %v. %s", maxRetries, lastErr, logCtx)
	return fmt.Errorf("telegram message failed after %d retries: %w", maxRetries, lastErr)
}

func EscapeMarkdownV2(s string) string {
	charsToEscape := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	temp := s
	for _, char := range charsToEscape {
		temp = strings.ReplaceAll(temp, char, "\\"+char)
	}
	return temp
}
