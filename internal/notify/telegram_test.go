package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type sentForm struct {
	ChatID    string
	Text      string
	ParseMode string
}

// fakeBotAPI serves the two Bot API methods the client uses.
func fakeBotAPI(t *testing.T, token string, failSend bool) (*httptest.Server, *[]sentForm) {
	t.Helper()
	var mu sync.Mutex
	var sent []sentForm

	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+token+"/getMe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"Mailbox","username":"mailbox_bot"}}`))
	})
	mux.HandleFunc("/bot"+token+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if failSend {
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		mu.Lock()
		sent = append(sent, sentForm{
			ChatID:    r.FormValue("chat_id"),
			Text:      r.FormValue("text"),
			ParseMode: r.FormValue("parse_mode"),
		})
		mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &sent
}

func TestTelegramSend(t *testing.T) {
	ts, sent := fakeBotAPI(t, "TOKEN", false)

	tg, err := NewTelegram("TOKEN", ts.URL+"/bot%s/%s", 5*time.Second)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	if tg.Username() != "mailbox_bot" {
		t.Errorf("Username: got %q", tg.Username())
	}

	text := "📬 *New mail!*\n🕒 Time: 10:00:00"
	if err := tg.Send(context.Background(), "42", text, ModeMarkdown); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(*sent) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*sent))
	}
	got := (*sent)[0]
	if got.ChatID != "42" {
		t.Errorf("chat_id: got %q", got.ChatID)
	}
	if got.Text != text {
		t.Errorf("text: got %q", got.Text)
	}
	if got.ParseMode != "Markdown" {
		t.Errorf("parse_mode: got %q", got.ParseMode)
	}
}

func TestTelegramSendAPIError(t *testing.T) {
	ts, _ := fakeBotAPI(t, "TOKEN", true)

	tg, err := NewTelegram("TOKEN", ts.URL+"/bot%s/%s", 5*time.Second)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	err = tg.Send(context.Background(), "42", "hi", ModePlain)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("expected API description in error, got %v", err)
	}
}

func TestTelegramSendToChannel(t *testing.T) {
	ts, sent := fakeBotAPI(t, "TOKEN", false)

	tg, err := NewTelegram("TOKEN", ts.URL+"/bot%s/%s", 5*time.Second)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	if err := tg.Send(context.Background(), "@mailbox_channel", "hi", ModePlain); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*sent) != 1 || (*sent)[0].ChatID != "@mailbox_channel" {
		t.Errorf("expected one message to @mailbox_channel, got %+v", *sent)
	}
}

func TestTelegramBadChatID(t *testing.T) {
	ts, sent := fakeBotAPI(t, "TOKEN", false)

	tg, err := NewTelegram("TOKEN", ts.URL+"/bot%s/%s", 5*time.Second)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	for _, id := range []string{"not-a-number", "@"} {
		if err := tg.Send(context.Background(), id, "hi", ModePlain); err == nil {
			t.Errorf("expected error for chat id %q", id)
		}
	}
	if len(*sent) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestTelegramBadToken(t *testing.T) {
	ts, _ := fakeBotAPI(t, "TOKEN", false)

	if _, err := NewTelegram("WRONG", ts.URL+"/bot%s/%s", 5*time.Second); err == nil {
		t.Error("expected login error for unknown token")
	}
}
