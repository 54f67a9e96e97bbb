package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/store"
)

type fakeNotifications struct {
	pending   []*models.Notification
	processed map[int64]*string
}

func (f *fakeNotifications) CreateIfDue(n *models.Notification, interval time.Duration) (bool, error) {
	return false, nil
}

func (f *fakeNotifications) GetPending() ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range f.pending {
		if _, done := f.processed[n.ID]; !done {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkProcessed(id int64, sendErr *string) error {
	f.processed[id] = sendErr
	return nil
}

func (f *fakeNotifications) ListRecent(limit int) ([]*models.Notification, error) {
	return nil, nil
}

type fakeBindings struct {
	chats map[string][]*models.ChatBinding
}

func (f *fakeBindings) BindWithToken(tok string, node *models.Node) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeBindings) GetChatsForNode(nodeNum string) ([]*models.ChatBinding, error) {
	return f.chats[nodeNum], nil
}

func (f *fakeBindings) ListForChat(chatID int64) ([]*models.NodeChatMapping, error) {
	return nil, nil
}

func (f *fakeBindings) SetLocalName(nodeNum string, chatID int64, localName string) error {
	return nil
}

func (f *fakeBindings) Unbind(nodeNum string, chatID int64) (bool, error) {
	return false, nil
}

type recordedSend struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent    []recordedSend
	failFor map[int64]error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, recordedSend{chatID, text})
	return nil
}

func testNotification(id int64, nodeNum string) *models.Notification {
	start := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	return &models.Notification{
		ID:             id,
		NodeNum:        nodeNum,
		WindowStart:    start,
		WindowEnd:      start.Add(time.Hour),
		PacketCount:    120,
		Threshold:      100,
		CategoriesJSON: `{"position": 90, "other": 30}`,
		CreatedAt:      start.Add(30 * time.Minute),
	}
}

func TestSweepDeliversToAllChats(t *testing.T) {
	notifs := &fakeNotifications{
		pending:   []*models.Notification{testNotification(1, "a4b2c3d4")},
		processed: map[int64]*string{},
	}
	bindings := &fakeBindings{chats: map[string][]*models.ChatBinding{
		"a4b2c3d4": {
			{ChatID: 100, DisplayName: "Roma Nord"},
			{ChatID: 200, DisplayName: "Gateway casa"},
		},
	}}
	sender := &fakeSender{}
	d := New(&store.Stores{Notifications: notifs, Bindings: bindings}, sender, time.Second)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sends = %d, want 2", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].text, "Roma Nord") {
		t.Errorf("first alert should use the first chat's display name: %q", sender.sent[0].text)
	}
	if !strings.Contains(sender.sent[1].text, "Gateway casa") {
		t.Errorf("second alert should use the second chat's display name: %q", sender.sent[1].text)
	}

	errMsg, done := notifs.processed[1]
	if !done {
		t.Fatal("notification not marked processed")
	}
	if errMsg != nil {
		t.Errorf("expected nil error, got %q", *errMsg)
	}
}

func TestSweepRecordsPartialFailure(t *testing.T) {
	notifs := &fakeNotifications{
		pending:   []*models.Notification{testNotification(1, "a4b2c3d4")},
		processed: map[int64]*string{},
	}
	bindings := &fakeBindings{chats: map[string][]*models.ChatBinding{
		"a4b2c3d4": {
			{ChatID: 100, DisplayName: "OK chat"},
			{ChatID: 200, DisplayName: "Broken chat"},
		},
	}}
	sender := &fakeSender{failFor: map[int64]error{200: fmt.Errorf("bot was blocked by the user")}}
	d := New(&store.Stores{Notifications: notifs, Bindings: bindings}, sender, time.Second)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 1 || sender.sent[0].chatID != 100 {
		t.Fatalf("expected one successful send to chat 100, got %+v", sender.sent)
	}
	errMsg, done := notifs.processed[1]
	if !done {
		t.Fatal("notification not marked processed despite failure")
	}
	if errMsg == nil || !strings.Contains(*errMsg, "blocked") {
		t.Errorf("error should record the failing chat's error, got %v", errMsg)
	}

	// One delivery attempt only: a later sweep must not resend.
	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("processed notification was resent")
	}
}

func TestSweepMarksOrphanNotifications(t *testing.T) {
	notifs := &fakeNotifications{
		pending:   []*models.Notification{testNotification(1, "ffffff")},
		processed: map[int64]*string{},
	}
	bindings := &fakeBindings{chats: map[string][]*models.ChatBinding{}}
	sender := &fakeSender{}
	d := New(&store.Stores{Notifications: notifs, Bindings: bindings}, sender, time.Second)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 0 {
		t.Errorf("orphan notification must not send anything")
	}
	errMsg, done := notifs.processed[1]
	if !done {
		t.Fatal("orphan notification not marked processed")
	}
	if errMsg == nil || *errMsg != "no_chat_for_node" {
		t.Errorf("expected no_chat_for_node marker, got %v", errMsg)
	}
}
